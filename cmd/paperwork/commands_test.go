package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCommandTest(t *testing.T, now time.Time) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("database.path", filepath.Join(t.TempDir(), "paperwork.db"))
	setDefaults()

	original := timeNow
	timeNow = testutil.FixedClock(now)
	t.Cleanup(func() { timeNow = original })
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out, err := tryExecute(cmd, args...)
	require.NoError(t, err, out)
	return out
}

func tryExecute(cmd *cobra.Command, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func recordMonthlyStatements(t *testing.T) {
	t.Helper()
	execute(t, uploadsCmd(), "add", "bank_statement", "Acme Bank",
		"2025-08-15", "2025-09-15", "2025-10-15", "2025-11-15", "2025-12-15", "2026-01-15")
}

func TestCommands_AnalyzeRemindInbox(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))
	recordMonthlyStatements(t)

	out := execute(t, uploadsCmd(), "list", "--source", "Acme Bank")
	assert.Contains(t, out, "2026-01-15")

	out = execute(t, analyzeCmd(), "--no-progress")
	assert.Contains(t, out, "monthly")
	assert.Contains(t, out, "1 document expected, 1 past the grace period")

	out = execute(t, patternsCmd(), "show", "bank_statement", "Acme Bank")
	assert.Contains(t, out, "Next expected: 2026-02-15")

	out = execute(t, missingCmd(), "list")
	assert.Contains(t, out, "Acme Bank")
	assert.Contains(t, out, "14d")

	out = execute(t, reportCmd())
	assert.Contains(t, out, "1 pattern")
	assert.Contains(t, out, "1 missing document open, 1 overdue")

	out = execute(t, remindCmd(), "generate")
	assert.Contains(t, out, "Still missing: Bank Statement from Acme Bank")

	out = execute(t, remindCmd(), "process", "--no-calendar")
	assert.Contains(t, out, "Sent 1 reminder")

	out = execute(t, inboxCmd())
	assert.Contains(t, out, "Still missing: Bank Statement from Acme Bank")

	// Each run catches up one rung until the default budget of three is spent.
	execute(t, remindCmd(), "process", "--no-calendar")
	execute(t, remindCmd(), "process", "--no-calendar")
	out = execute(t, remindCmd(), "process", "--no-calendar")
	assert.Contains(t, out, "No reminders due (1 document open)")
}

func TestCommands_EmptyDatabase(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))

	_, err := tryExecute(analyzeCmd(), "--no-progress")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoUploads)

	_, err = tryExecute(reportCmd(), "--sheets")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoPatterns)
}

func TestCommands_MissingActions(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))
	recordMonthlyStatements(t)
	execute(t, analyzeCmd(), "--no-progress")

	out := execute(t, missingCmd(), "snooze", "1", "--days", "5")
	assert.Contains(t, out, "snoozed until 2026-03-06")

	out = execute(t, missingCmd(), "list")
	assert.Contains(t, out, "(snoozed)")

	out = execute(t, missingCmd(), "resolve", "1")
	assert.Contains(t, out, "Document 1 resolved")

	out = execute(t, missingCmd(), "list")
	assert.Contains(t, out, "No missing documents")

	out = execute(t, missingCmd(), "list", "--all")
	assert.Contains(t, out, string(model.MissingStatusUploaded))

	_, err := tryExecute(missingCmd(), "dismiss", "1")
	assert.Error(t, err, "uploaded documents cannot be dismissed")

	_, err = tryExecute(missingCmd(), "snooze", "abc")
	assert.Error(t, err)
}

func TestCommands_Expected(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.February, 1))
	recordMonthlyStatements(t)
	execute(t, analyzeCmd(), "--no-progress", "--skip-detect")

	out := execute(t, expectedCmd(), "--days", "30")
	assert.Contains(t, out, "2026-02-15")
	assert.Contains(t, out, "in 14 days")

	out = execute(t, expectedCmd(), "--days", "7")
	assert.Contains(t, out, "Nothing expected")
}

func TestCommands_Settings(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))

	execute(t, settingsCmd(), "set", "bank_statement",
		"--before", "7,3", "--after", "1,7", "--max", "4", "--channels", "app,email")

	out := execute(t, settingsCmd(), "show", "bank_statement")
	assert.Contains(t, out, "7,3")
	assert.Contains(t, out, "app,email")

	out = execute(t, settingsCmd(), "show")
	assert.Contains(t, out, "Bank Statement")

	_, err := tryExecute(settingsCmd(), "set", "bank_statement", "--channels", "fax")
	assert.Error(t, err)

	_, err = tryExecute(settingsCmd(), "set", "bank_statement", "--after", "-1")
	assert.Error(t, err)
}

func TestCommands_Migrate(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))

	out := execute(t, migrateCmd(), "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	execute(t, migrateCmd())

	out = execute(t, migrateCmd(), "--status")
	assert.NotContains(t, out, "Migrations pending")
}

func TestCommands_Checkpoint(t *testing.T) {
	setupCommandTest(t, testutil.Date(2026, time.March, 1))
	execute(t, uploadsCmd(), "add", "payroll_summary", "Initech", "2026-01-31")

	out := execute(t, checkpointCmd(), "create", "baseline", "-d", "one summary")
	assert.Contains(t, out, "Created checkpoint baseline")
	assert.Contains(t, out, "one summary")

	_, err := tryExecute(checkpointCmd(), "create", "baseline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	execute(t, uploadsCmd(), "add", "payroll_summary", "Initech", "2026-02-28")

	out = execute(t, checkpointCmd(), "list")
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "manual")

	cmd := checkpointCmd()
	cmd.SetIn(strings.NewReader("n\n"))
	out = execute(t, cmd, "restore", "baseline")
	assert.Contains(t, out, "Restore cancelled")

	out = execute(t, checkpointCmd(), "restore", "baseline", "--force")
	assert.Contains(t, out, "Restored from checkpoint baseline")

	out = execute(t, uploadsCmd(), "list")
	assert.Contains(t, out, "2026-01-31")
	assert.NotContains(t, out, "2026-02-28")

	out = execute(t, checkpointCmd(), "delete", "baseline", "--force")
	assert.Contains(t, out, "Deleted checkpoint baseline")

	out = execute(t, checkpointCmd(), "list")
	assert.Contains(t, out, "No checkpoints found")

	_, err = tryExecute(checkpointCmd(), "restore", "baseline", "--force")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No checkpoint with that name")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))

	now := testutil.Date(2026, time.March, 10)
	assert.Equal(t, "just now", formatRelativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", formatRelativeTime(now.Add(-time.Minute), now))
	assert.Equal(t, "3 hours ago", formatRelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "yesterday", formatRelativeTime(now.Add(-30*time.Hour), now))
	assert.Equal(t, "4 days ago", formatRelativeTime(now.AddDate(0, 0, -4), now))
	assert.Equal(t, "2026-02-01 00:00", formatRelativeTime(testutil.Date(2026, time.February, 1), now))
}

func TestParseHelpers(t *testing.T) {
	t.Run("channels", func(t *testing.T) {
		channels, err := parseChannels([]string{"app, email", "push"})
		require.NoError(t, err)
		assert.Equal(t, []model.Channel{model.ChannelApp, model.ChannelEmail, model.ChannelPush}, channels)

		_, err = parseChannels([]string{"sms"})
		assert.Error(t, err)
	})

	t.Run("ints", func(t *testing.T) {
		values, err := parseInts([]string{"1,7", "14"})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 7, 14}, values)

		_, err = parseInts([]string{"x"})
		assert.Error(t, err)
	})

	t.Run("date flag", func(t *testing.T) {
		fallback := testutil.Date(2026, time.January, 1)
		got, err := parseDateFlag("", fallback)
		require.NoError(t, err)
		assert.True(t, fallback.Equal(got))

		got, err = parseDateFlag("2026-02-15", fallback)
		require.NoError(t, err)
		assert.True(t, testutil.Date(2026, time.February, 15).Equal(got))

		_, err = parseDateFlag("15/02/2026", fallback)
		assert.Error(t, err)
	})

	t.Run("document type", func(t *testing.T) {
		docType, err := parseDocumentType(" Bank_Statement ")
		require.NoError(t, err)
		assert.Equal(t, model.DocumentTypeBankStatement, docType)

		_, err = parseDocumentType("")
		assert.Error(t, err)
	})
}
