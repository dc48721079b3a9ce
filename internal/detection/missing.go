package detection

import (
	"sort"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// DetectMissingDocuments decides, as of asOf, which expected documents have not
// arrived. Patterns without an actionable confidence or a next expected date
// are skipped. A recent upload for the same stream dated on or after the
// expected date means the cycle is satisfied and no row is produced.
//
// Results are ordered by days overdue (descending), then expected date.
func DetectMissingDocuments(patterns []model.DocumentPattern, recentUploads []model.UploadRecord, asOf time.Time) []model.MissingDocument {
	latest := latestUploads(recentUploads)
	missing := make([]model.MissingDocument, 0, len(patterns))

	for i := range patterns {
		p := &patterns[i]
		if !p.Confidence.Actionable() || p.NextExpectedDate == nil {
			continue
		}

		expected := *p.NextExpectedDate
		if uploaded, ok := latest[p.Key()]; ok && !common.DayOf(uploaded).Before(common.DayOf(expected)) {
			continue
		}

		missing = append(missing, newMissingDocument(p, expected, asOf))
	}

	sort.SliceStable(missing, func(i, j int) bool {
		if missing[i].DaysOverdue != missing[j].DaysOverdue {
			return missing[i].DaysOverdue > missing[j].DaysOverdue
		}
		return missing[i].ExpectedDate.Before(missing[j].ExpectedDate)
	})

	return missing
}

func newMissingDocument(p *model.DocumentPattern, expected, asOf time.Time) model.MissingDocument {
	lastUpload := p.LastUploadDate()
	doc := model.MissingDocument{
		PatternID:         p.ID,
		DocumentType:      p.DocumentType,
		Source:            p.Source,
		ExpectedDate:      expected,
		GracePeriodEnd:    common.AddDays(expected, p.GracePeriodDays),
		Confidence:        p.Confidence,
		LastUploadDate:    &lastUpload,
		HistoricalUploads: p.UploadsAnalyzed,
		Status:            model.MissingStatusPending,
		DetectedAt:        asOf,
	}
	RefreshOverdue(&doc, asOf)
	return doc
}

// RefreshOverdue recomputes DaysOverdue and IsMissing for asOf from the
// document's expected date and grace period end.
func RefreshOverdue(doc *model.MissingDocument, asOf time.Time) {
	doc.DaysOverdue = max(0, common.DaysBetween(doc.ExpectedDate, asOf))
	doc.IsMissing = common.DayOf(asOf).After(common.DayOf(doc.GracePeriodEnd))
}

// latestUploads keeps the most recent upload date per stream.
func latestUploads(uploads []model.UploadRecord) map[model.PatternKey]time.Time {
	latest := make(map[model.PatternKey]time.Time, len(uploads))
	for _, u := range uploads {
		if current, ok := latest[u.Key()]; !ok || u.UploadDate.After(current) {
			latest[u.Key()] = u.UploadDate
		}
	}
	return latest
}

// ExpectedDocument is a document due within a lookahead window.
type ExpectedDocument struct {
	Pattern           model.DocumentPattern
	DaysUntilExpected int
}

// GetExpectedDocuments returns the patterns whose next expected date falls in
// [now, now+lookAheadDays], soonest first. Missing state is not considered.
func GetExpectedDocuments(patterns []model.DocumentPattern, lookAheadDays int, now time.Time) []ExpectedDocument {
	var expected []ExpectedDocument
	for _, p := range patterns {
		if p.NextExpectedDate == nil {
			continue
		}
		days := common.DaysBetween(now, *p.NextExpectedDate)
		if days < 0 || days > lookAheadDays {
			continue
		}
		expected = append(expected, ExpectedDocument{Pattern: p, DaysUntilExpected: days})
	}

	sort.SliceStable(expected, func(i, j int) bool {
		if expected[i].DaysUntilExpected != expected[j].DaysUntilExpected {
			return expected[i].DaysUntilExpected < expected[j].DaysUntilExpected
		}
		return expected[i].Pattern.Key().String() < expected[j].Pattern.Key().String()
	})

	return expected
}
