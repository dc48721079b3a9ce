package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "Acme Bank"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t\n", wantErr: true},
		{name: "padded value", str: " x "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "source")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateUploads(t *testing.T) {
	valid := model.UploadRecord{
		DocumentType: model.DocumentTypeBankStatement,
		Source:       "Acme Bank",
		UploadDate:   day(2026, time.January, 15),
	}

	tests := []struct {
		want    error
		name    string
		uploads []model.UploadRecord
	}{
		{name: "valid uploads", uploads: []model.UploadRecord{valid, valid}},
		{name: "nil slice", uploads: nil, want: ErrNilParameter},
		{name: "empty slice", uploads: []model.UploadRecord{}, want: ErrEmptySlice},
		{
			name: "missing source",
			uploads: []model.UploadRecord{valid, {
				DocumentType: model.DocumentTypeInvoice,
				UploadDate:   day(2026, time.January, 1),
			}},
			want: ErrInvalidUpload,
		},
		{
			name: "missing date",
			uploads: []model.UploadRecord{{
				DocumentType: model.DocumentTypeInvoice,
				Source:       "Globex",
			}},
			want: ErrInvalidUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUploads(tt.uploads)
			if tt.want == nil {
				if err != nil {
					t.Errorf("validateUploads() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("validateUploads() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func validPattern() *model.DocumentPattern {
	next := day(2026, time.February, 15)
	return &model.DocumentPattern{
		DocumentType:     model.DocumentTypeBankStatement,
		Source:           "Acme Bank",
		Frequency:        model.FrequencyMonthly,
		Confidence:       model.ConfidenceHigh,
		Stability:        model.StabilityStable,
		NextExpectedDate: &next,
		ConfidenceScore:  90,
		GracePeriodDays:  5,
		UploadsAnalyzed:  6,
		DateRange:        model.DateRange{Start: day(2025, time.August, 15), End: day(2026, time.January, 15)},
	}
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		mutate  func(p *model.DocumentPattern)
		name    string
		nilIn   bool
		wantErr bool
	}{
		{name: "valid pattern", mutate: func(*model.DocumentPattern) {}},
		{name: "nil pattern", nilIn: true, wantErr: true},
		{name: "unknown frequency", mutate: func(p *model.DocumentPattern) { p.Frequency = "weekly" }, wantErr: true},
		{name: "score above 100", mutate: func(p *model.DocumentPattern) { p.ConfidenceScore = 101 }, wantErr: true},
		{name: "no grace period", mutate: func(p *model.DocumentPattern) { p.GracePeriodDays = 0 }, wantErr: true},
		{
			name: "next expected before last upload",
			mutate: func(p *model.DocumentPattern) {
				before := day(2026, time.January, 1)
				p.NextExpectedDate = &before
			},
			wantErr: true,
		},
		{name: "no next date", mutate: func(p *model.DocumentPattern) { p.NextExpectedDate = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p *model.DocumentPattern
			if !tt.nilIn {
				p = validPattern()
				tt.mutate(p)
			}
			err := validatePattern(p)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePattern() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !tt.nilIn && !errors.Is(err, ErrInvalidPattern) {
				t.Errorf("validatePattern() error = %v, want ErrInvalidPattern", err)
			}
		})
	}
}

func TestValidateMissingDocument(t *testing.T) {
	tests := []struct {
		doc        *model.MissingDocument
		want       error
		name       string
		wantStatus model.MissingStatus
	}{
		{
			name:       "defaults status to pending",
			doc:        &model.MissingDocument{PatternID: 1, ExpectedDate: day(2026, time.February, 15)},
			wantStatus: model.MissingStatusPending,
		},
		{
			name: "keeps reminded status",
			doc: &model.MissingDocument{
				PatternID: 1, ExpectedDate: day(2026, time.February, 15),
				Status: model.MissingStatusReminded, DaysOverdue: 9,
			},
			wantStatus: model.MissingStatusReminded,
		},
		{name: "nil document", doc: nil, want: ErrNilParameter},
		{
			name: "no pattern",
			doc:  &model.MissingDocument{ExpectedDate: day(2026, time.February, 15)},
			want: ErrInvalidMissingDoc,
		},
		{
			name: "no expected date",
			doc:  &model.MissingDocument{PatternID: 1},
			want: ErrInvalidMissingDoc,
		},
		{
			name: "negative overdue",
			doc:  &model.MissingDocument{PatternID: 1, ExpectedDate: day(2026, time.February, 15), DaysOverdue: -1},
			want: ErrInvalidMissingDoc,
		},
		{
			name: "unknown status",
			doc:  &model.MissingDocument{PatternID: 1, ExpectedDate: day(2026, time.February, 15), Status: "lost"},
			want: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMissingDocument(tt.doc)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("validateMissingDocument() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateMissingDocument() unexpected error = %v", err)
			}
			if tt.doc.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", tt.doc.Status, tt.wantStatus)
			}
		})
	}
}

func TestValidateHistory(t *testing.T) {
	valid := func() *model.ReminderHistory {
		return &model.ReminderHistory{
			MissingDocumentID: 3,
			ReminderID:        "r-1",
			ReminderType:      model.ReminderOverdue,
			Channel:           model.ChannelEmail,
			Sequence:          1,
			SentAt:            day(2026, time.February, 21),
		}
	}

	tests := []struct {
		mutate func(h *model.ReminderHistory)
		want   error
		name   string
	}{
		{name: "valid entry", mutate: func(*model.ReminderHistory) {}},
		{name: "no document", mutate: func(h *model.ReminderHistory) { h.MissingDocumentID = 0 }, want: ErrInvalidHistory},
		{name: "zero sequence", mutate: func(h *model.ReminderHistory) { h.Sequence = 0 }, want: ErrInvalidHistory},
		{name: "unknown channel", mutate: func(h *model.ReminderHistory) { h.Channel = "sms" }, want: ErrInvalidChannel},
		{name: "unknown type", mutate: func(h *model.ReminderHistory) { h.ReminderType = "nag" }, want: ErrInvalidHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.mutate(h)
			err := validateHistory(h)
			if tt.want == nil {
				if err != nil {
					t.Errorf("validateHistory() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("validateHistory() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := validateHistory(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateHistory(nil) error = %v, want ErrNilParameter", err)
	}
}

func TestValidateStatus(t *testing.T) {
	for _, status := range []model.MissingStatus{
		model.MissingStatusPending, model.MissingStatusReminded,
		model.MissingStatusUploaded, model.MissingStatusDismissed,
	} {
		if err := validateStatus(status); err != nil {
			t.Errorf("validateStatus(%s) error = %v", status, err)
		}
	}
	if err := validateStatus("archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("validateStatus(archived) error = %v, want ErrInvalidStatus", err)
	}
}
