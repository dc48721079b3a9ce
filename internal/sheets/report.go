package sheets

import (
	"sort"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/detection"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// Tab names in the exported spreadsheet.
const (
	TabPatterns = "Patterns"
	TabMissing  = "Missing"
	TabExpected = "Expected"
)

// Tabs lists the report tabs in display order.
var Tabs = []string{TabPatterns, TabMissing, TabExpected}

// Report is a point-in-time snapshot of learned patterns and document state.
type Report struct {
	GeneratedAt time.Time
	Patterns    []model.DocumentPattern
	Missing     []model.MissingDocument
	Expected    []detection.ExpectedDocument
}

// Rows renders every tab. The first row of each tab is its header.
func (r *Report) Rows() map[string][][]any {
	return map[string][][]any{
		TabPatterns: r.patternRows(),
		TabMissing:  r.missingRows(),
		TabExpected: r.expectedRows(),
	}
}

func (r *Report) patternRows() [][]any {
	patterns := append([]model.DocumentPattern(nil), r.Patterns...)
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Key().String() < patterns[j].Key().String()
	})

	rows := make([][]any, 0, len(patterns)+1)
	rows = append(rows, []any{
		"Document Type", "Source", "Frequency", "Confidence", "Score",
		"Uploads", "Avg Interval (days)", "Usual Day", "Last Upload", "Next Expected", "Grace (days)",
	})
	for _, p := range patterns {
		avg := ""
		if p.Statistics != nil {
			avg = formatFloat(p.Statistics.AverageIntervalDays)
		}
		day := ""
		if p.ExpectedDayOfMonth != nil {
			day = formatInt(*p.ExpectedDayOfMonth)
		}
		rows = append(rows, []any{
			p.DocumentType.Label(),
			p.Source,
			string(p.Frequency),
			string(p.Confidence),
			formatFloat(p.ConfidenceScore),
			p.UploadsAnalyzed,
			avg,
			day,
			p.LastUploadDate().Format(common.DateLayout),
			formatDatePtr(p.NextExpectedDate),
			p.GracePeriodDays,
		})
	}
	return rows
}

func (r *Report) missingRows() [][]any {
	missing := append([]model.MissingDocument(nil), r.Missing...)
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].DaysOverdue != missing[j].DaysOverdue {
			return missing[i].DaysOverdue > missing[j].DaysOverdue
		}
		return missing[i].ID < missing[j].ID
	})

	rows := make([][]any, 0, len(missing)+1)
	rows = append(rows, []any{
		"ID", "Document Type", "Source", "Expected", "Grace Ends", "Days Overdue", "Status", "Snoozed Until",
	})
	for _, d := range missing {
		rows = append(rows, []any{
			d.ID,
			d.DocumentType.Label(),
			d.Source,
			d.ExpectedDate.Format(common.DateLayout),
			d.GracePeriodEnd.Format(common.DateLayout),
			d.DaysOverdue,
			string(d.Status),
			formatDatePtr(d.SnoozedUntil),
		})
	}
	return rows
}

func (r *Report) expectedRows() [][]any {
	rows := make([][]any, 0, len(r.Expected)+1)
	rows = append(rows, []any{"Document Type", "Source", "Expected", "Days Until", "Confidence"})
	for _, e := range r.Expected {
		rows = append(rows, []any{
			e.Pattern.DocumentType.Label(),
			e.Pattern.Source,
			formatDatePtr(e.Pattern.NextExpectedDate),
			e.DaysUntilExpected,
			string(e.Pattern.Confidence),
		})
	}
	return rows
}
