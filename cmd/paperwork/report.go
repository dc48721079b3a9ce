package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/config"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/sheets"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize patterns and missing documents",
		Long: `Summarize learned patterns, open missing documents and documents expected
soon. With --sheets the full report is exported to Google Sheets, one tab
each for patterns, missing and expected documents.`,
		RunE: runReport,
	}

	cmd.Flags().Bool("sheets", false, "export the report to Google Sheets")
	cmd.Flags().Int("days", 0, "look-ahead window for expected documents")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	export, _ := cmd.Flags().GetBool("sheets")
	days, _ := cmd.Flags().GetInt("days")

	db, cleanup, err := getDatabase(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := newEngine(db, metrics.Nop{}, nil)
	if err != nil {
		return err
	}

	report := &sheets.Report{GeneratedAt: timeNow()}
	if report.Patterns, err = db.GetPatterns(ctx); err != nil {
		return fmt.Errorf("failed to get patterns: %w", err)
	}
	if report.Missing, err = db.GetOpenMissingDocuments(ctx); err != nil {
		return fmt.Errorf("failed to get missing documents: %w", err)
	}
	if report.Expected, err = eng.ExpectedDocuments(ctx, days); err != nil {
		return err
	}

	overdue := 0
	for _, d := range report.Missing {
		if d.IsMissing {
			overdue++
		}
	}
	actionable := 0
	for _, p := range report.Patterns {
		if p.Confidence.Actionable() {
			actionable++
		}
	}

	_, _ = fmt.Fprintln(out, cli.RenderBox("Paperwork status", fmt.Sprintf(
		"%s (%d with enough confidence to alert)\n%s open, %d overdue\n%s expected soon",
		cli.Plural(len(report.Patterns), "pattern"), actionable,
		cli.Plural(len(report.Missing), "missing document"), overdue,
		cli.Plural(len(report.Expected), "document"))))

	if !export {
		return nil
	}
	if len(report.Patterns) == 0 {
		return common.NewUserError("Nothing to export yet. Run: paperwork analyze", common.ErrNoPatterns)
	}

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets configuration: %w", err)
	}
	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return err
	}
	spreadsheetID, err := writer.Write(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf(
		"Exported to https://docs.google.com/spreadsheets/d/%s", spreadsheetID)))
	return nil
}

