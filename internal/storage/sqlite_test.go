package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// createTestPattern saves a monthly pattern for the given source and returns it.
func createTestPattern(t *testing.T, store *SQLiteStorage, source string) *model.DocumentPattern {
	t.Helper()
	dom := 15
	next := day(2026, time.February, 15)
	pattern := &model.DocumentPattern{
		DocumentType: model.DocumentTypeBankStatement,
		Source:       source,
		Frequency:    model.FrequencyMonthly,
		Confidence:   model.ConfidenceHigh,
		Stability:    model.StabilityStable,
		Statistics: &model.IntervalStatistics{
			AverageIntervalDays:    30.4,
			IntervalStdDev:         0.9,
			MinIntervalDays:        28,
			MaxIntervalDays:        31,
			CoefficientOfVariation: 0.03,
			ConsistencyScore:       0.91,
		},
		ExpectedDayOfMonth: &dom,
		NextExpectedDate:   &next,
		ConfidenceScore:    97.9,
		GracePeriodDays:    5,
		UploadsAnalyzed:    6,
		DateRange:          model.DateRange{Start: day(2025, time.August, 15), End: day(2026, time.January, 15)},
		AnalyzedAt:         day(2026, time.January, 20),
	}
	require.NoError(t, store.SavePattern(context.Background(), pattern))
	return pattern
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, ":memory:", store.Path())
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_SaveUploads(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		uploads []model.UploadRecord
		want    int
	}{
		{
			name: "saves new uploads",
			uploads: []model.UploadRecord{
				{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2026, 1, 15)},
				{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2026, 2, 15)},
			},
			want: 2,
		},
		{
			name: "duplicate uploads are ignored",
			uploads: []model.UploadRecord{
				{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2026, 1, 15)},
				{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2026, 1, 15)},
			},
			want: 1,
		},
		{
			name:    "empty slice",
			uploads: []model.UploadRecord{},
			wantErr: ErrEmptySlice,
		},
		{
			name:    "nil slice",
			wantErr: ErrNilParameter,
		},
		{
			name: "missing source",
			uploads: []model.UploadRecord{
				{DocumentType: model.DocumentTypeBankStatement, UploadDate: day(2026, 1, 15)},
			},
			wantErr: ErrInvalidUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			err := store.SaveUploads(ctx, tt.uploads)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := store.GetUploads(ctx, service.UploadFilter{})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSQLiteStorage_GetUploadsFilter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	uploads := []model.UploadRecord{
		{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2025, 12, 15)},
		{DocumentType: model.DocumentTypeBankStatement, Source: "chase", UploadDate: day(2026, 1, 15)},
		{DocumentType: model.DocumentTypeBankStatement, Source: "amex", UploadDate: day(2026, 1, 3)},
		{DocumentType: model.DocumentTypeInvoice, Source: "acme", UploadDate: day(2026, 1, 20)},
	}
	require.NoError(t, store.SaveUploads(ctx, uploads))

	t.Run("by type and source", func(t *testing.T) {
		got, err := store.GetUploads(ctx, service.UploadFilter{
			DocumentType: model.DocumentTypeBankStatement,
			Source:       "chase",
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].UploadDate.Equal(day(2025, 12, 15)), "oldest first")
		assert.NotZero(t, got[0].ID)
	})

	t.Run("by date range", func(t *testing.T) {
		since := day(2026, 1, 1)
		until := day(2026, 1, 16)
		got, err := store.GetUploads(ctx, service.UploadFilter{Since: &since, Until: &until})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "amex", got[0].Source)
		assert.Equal(t, "chase", got[1].Source)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.GetUploads(ctx, service.UploadFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("inverted range", func(t *testing.T) {
		since := day(2026, 2, 1)
		until := day(2026, 1, 1)
		_, err := store.GetUploads(ctx, service.UploadFilter{Since: &since, Until: &until})
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestSQLiteStorage_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	_, err := store.GetPatterns(nil)
	assert.ErrorIs(t, err, ErrNilContext)

	//nolint:staticcheck // testing nil context handling
	_, err = store.GetOpenMissingDocuments(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}
