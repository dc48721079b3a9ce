package testutil

import (
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// UploadSeries builds the upload history of one (document type, source) stream.
type UploadSeries struct {
	docType model.DocumentType
	source  string
	dates   []time.Time
}

// NewUploadSeries starts an empty series.
func NewUploadSeries(docType model.DocumentType, source string) *UploadSeries {
	return &UploadSeries{docType: docType, source: source}
}

// Monthly adds count uploads on the same day of consecutive months.
func (s *UploadSeries) Monthly(start time.Time, count int) *UploadSeries {
	return s.everyMonths(start, 1, count)
}

// Quarterly adds count uploads three months apart.
func (s *UploadSeries) Quarterly(start time.Time, count int) *UploadSeries {
	return s.everyMonths(start, 3, count)
}

// Yearly adds count uploads a year apart.
func (s *UploadSeries) Yearly(start time.Time, count int) *UploadSeries {
	return s.everyMonths(start, 12, count)
}

// Every adds count uploads a fixed number of days apart.
func (s *UploadSeries) Every(start time.Time, days, count int) *UploadSeries {
	for i := 0; i < count; i++ {
		s.dates = append(s.dates, start.AddDate(0, 0, i*days))
	}
	return s
}

// On adds uploads on the given dates.
func (s *UploadSeries) On(dates ...time.Time) *UploadSeries {
	s.dates = append(s.dates, dates...)
	return s
}

func (s *UploadSeries) everyMonths(start time.Time, months, count int) *UploadSeries {
	for i := 0; i < count; i++ {
		s.dates = append(s.dates, start.AddDate(0, i*months, 0))
	}
	return s
}

// Dates returns the upload dates added so far.
func (s *UploadSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Build returns the series as upload records.
func (s *UploadSeries) Build() []model.UploadRecord {
	records := make([]model.UploadRecord, len(s.dates))
	for i, d := range s.dates {
		records[i] = model.UploadRecord{
			DocumentType: s.docType,
			Source:       s.source,
			UploadDate:   d,
		}
	}
	return records
}
