package sheets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/detection"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	spreadsheet *sheets.Spreadsheet
	updates     map[string][][]any
	cleared     []string
	batches     []*sheets.BatchUpdateSpreadsheetRequest
	updateErrs  int
	mu          sync.Mutex
}

func newFakeSheets(tabs ...string) *fakeSheets {
	f := &fakeSheets{updates: make(map[string][][]any)}
	if tabs != nil {
		f.spreadsheet = &sheets.Spreadsheet{SpreadsheetId: "existing"}
		for i, tab := range tabs {
			f.addTab(tab, int64(i))
		}
	}
	return f
}

func (f *fakeSheets) addTab(title string, id int64) {
	f.spreadsheet.Sheets = append(f.spreadsheet.Sheets, &sheets.Sheet{
		Properties: &sheets.SheetProperties{Title: title, SheetId: id},
	})
}

func (f *fakeSheets) Get(_ context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spreadsheet == nil || f.spreadsheet.SpreadsheetId != spreadsheetID {
		return nil, errors.New("not found")
	}
	return f.spreadsheet, nil
}

func (f *fakeSheets) Create(_ context.Context, spreadsheet *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spreadsheet = &sheets.Spreadsheet{SpreadsheetId: "created", Properties: spreadsheet.Properties}
	for i, s := range spreadsheet.Sheets {
		f.addTab(s.Properties.Title, int64(100+i))
	}
	return f.spreadsheet, nil
}

func (f *fakeSheets) BatchUpdate(_ context.Context, _ string, req *sheets.BatchUpdateSpreadsheetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, req)
	for _, r := range req.Requests {
		if r.AddSheet != nil {
			f.addTab(r.AddSheet.Properties.Title, int64(200+len(f.spreadsheet.Sheets)))
		}
	}
	return nil
}

func (f *fakeSheets) Clear(_ context.Context, _ string, rangeStr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, rangeStr)
	return nil
}

func (f *fakeSheets) Update(_ context.Context, _ string, rangeStr string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErrs > 0 {
		f.updateErrs--
		return errors.New("backend error")
	}
	tab := strings.SplitN(rangeStr, "!", 2)[0]
	f.updates[tab] = append(f.updates[tab], values...)
	return nil
}

func testReport() *Report {
	next := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	day := 15
	pattern := model.DocumentPattern{
		DocumentType:       model.DocumentTypeBankStatement,
		Source:             "Acme Bank",
		Frequency:          model.FrequencyMonthly,
		Confidence:         model.ConfidenceHigh,
		ConfidenceScore:    92.5,
		UploadsAnalyzed:    6,
		GracePeriodDays:    5,
		ExpectedDayOfMonth: &day,
		NextExpectedDate:   &next,
		DateRange: model.DateRange{
			Start: time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		Statistics: &model.IntervalStatistics{AverageIntervalDays: 30.6},
	}
	return &Report{
		GeneratedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Patterns:    []model.DocumentPattern{pattern},
		Missing: []model.MissingDocument{
			{ID: 2, DocumentType: model.DocumentTypeInvoice, Source: "Utility", DaysOverdue: 3, Status: model.MissingStatusPending},
			{ID: 1, DocumentType: model.DocumentTypeBankStatement, Source: "Acme Bank", DaysOverdue: 14, Status: model.MissingStatusReminded},
		},
		Expected: []detection.ExpectedDocument{{Pattern: pattern, DaysUntilExpected: 14}},
	}
}

func testConfig() Config {
	config := DefaultConfig()
	config.ServiceAccountPath = "/path/to/key.json"
	config.RetryDelay = time.Millisecond
	return config
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid service account config",
			modify: func(_ *Config) {},
		},
		{
			name: "valid oauth config",
			modify: func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "token"
			},
		},
		{
			name:    "missing auth",
			modify:  func(c *Config) { c.ServiceAccountPath = "" },
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			modify: func(c *Config) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "token"
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "missing spreadsheet",
			modify:  func(c *Config) { c.SpreadsheetName = "" },
			wantErr: true,
			errMsg:  "spreadsheet id or name is required",
		},
		{
			name:    "invalid batch size",
			modify:  func(c *Config) { c.BatchSize = 0 },
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry delay",
			modify:  func(c *Config) { c.RetryDelay = -time.Second },
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-from-env")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")

	config := DefaultConfig()
	config.ClientID = "configured"
	config.LoadFromEnv()

	assert.Equal(t, "configured", config.ClientID)
	assert.Equal(t, "sheet-from-env", config.SpreadsheetID)
}

func TestReport_Rows(t *testing.T) {
	rows := testReport().Rows()

	patterns := rows[TabPatterns]
	require.Len(t, patterns, 2)
	assert.Equal(t, "Document Type", patterns[0][0])
	assert.Equal(t, []any{
		"Bank Statement", "Acme Bank", "monthly", "high", "92.5",
		6, "30.6", "15", "2026-01-15", "2026-02-15", 5,
	}, patterns[1])

	missing := rows[TabMissing]
	require.Len(t, missing, 3)
	assert.Equal(t, int64(1), missing[1][0], "most overdue first")
	assert.Equal(t, "reminded", missing[1][6])
	assert.Equal(t, "", missing[1][7])

	expected := rows[TabExpected]
	require.Len(t, expected, 2)
	assert.Equal(t, 14, expected[1][3])
}

func TestWriter_CreatesSpreadsheet(t *testing.T) {
	api := newFakeSheets()
	writer := newWriter(api, testConfig(), nil)

	id, err := writer.Write(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, "created", id)
	assert.Equal(t, "Paperwork Status", api.spreadsheet.Properties.Title)

	for _, tab := range Tabs {
		assert.Contains(t, api.cleared, tab+"!A:Z")
		assert.NotEmpty(t, api.updates[tab], tab)
	}
	assert.Len(t, api.updates[TabMissing], 3)

	require.Len(t, api.batches, 1, "only formatting, tabs already exist")
	assert.Len(t, api.batches[0].Requests, 3*len(Tabs))
}

func TestWriter_AddsMissingTabs(t *testing.T) {
	api := newFakeSheets(TabPatterns)
	config := testConfig()
	config.SpreadsheetID = "existing"
	config.EnableFormatting = false
	writer := newWriter(api, config, nil)

	id, err := writer.Write(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, "existing", id)

	require.Len(t, api.batches, 1)
	assert.Len(t, api.batches[0].Requests, 2)
	assert.Len(t, api.spreadsheet.Sheets, 3)
}

func TestWriter_BatchesAndRetries(t *testing.T) {
	api := newFakeSheets()
	api.updateErrs = 1
	config := testConfig()
	config.BatchSize = 1
	config.EnableFormatting = false
	writer := newWriter(api, config, nil)

	_, err := writer.Write(context.Background(), testReport())
	require.NoError(t, err)

	// The failed first attempt cleared the tab and retried from the top.
	assert.Len(t, api.updates[TabMissing], 3)
	assert.Len(t, api.updates[TabPatterns], 2)
}

func TestWriter_UnknownSpreadsheet(t *testing.T) {
	config := testConfig()
	config.SpreadsheetID = "nope"
	writer := newWriter(newFakeSheets(), config, nil)

	_, err := writer.Write(context.Background(), testReport())
	assert.Error(t, err)
}
