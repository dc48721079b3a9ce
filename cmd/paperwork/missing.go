package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/spf13/cobra"
)

func missingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missing",
		Short: "Review documents that have not arrived",
	}

	cmd.AddCommand(missingListCmd())
	cmd.AddCommand(missingDetectCmd())
	cmd.AddCommand(missingActionCmd("resolve", "resolved", "Mark a missing document as uploaded", model.ActionUpload))
	cmd.AddCommand(missingActionCmd("dismiss", "dismissed", "Stop reminding about a missing document", model.ActionDismiss))
	cmd.AddCommand(missingSnoozeCmd())

	return cmd
}

func missingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missing documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			all, _ := cmd.Flags().GetBool("all")
			statuses := []model.MissingStatus{model.MissingStatusPending, model.MissingStatusReminded}
			if all {
				statuses = nil
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			docs, err := db.GetMissingDocuments(ctx, statuses...)
			if err != nil {
				return fmt.Errorf("failed to list missing documents: %w", err)
			}
			if len(docs) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatSuccess("No missing documents"))
				return nil
			}

			now := timeNow()
			rows := make([][]string, len(docs))
			for i := range docs {
				d := &docs[i]
				status := string(d.Status)
				if d.IsSnoozed(now) {
					status += " (snoozed)"
				}
				overdue := "-"
				if d.DaysOverdue > 0 {
					overdue = strconv.Itoa(d.DaysOverdue) + "d"
				}
				if d.IsMissing {
					overdue = cli.ErrorStyle.Render(overdue)
				}
				rows[i] = []string{
					strconv.FormatInt(d.ID, 10),
					d.DocumentType.Label(),
					d.Source,
					d.ExpectedDate.Format(common.DateLayout),
					overdue,
					status,
				}
			}
			_, _ = fmt.Fprint(out, cli.RenderTable(
				[]string{"ID", "TYPE", "SOURCE", "EXPECTED", "OVERDUE", "STATUS"}, rows))
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "include uploaded and dismissed documents")

	return cmd
}

func missingDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Check learned patterns for documents that have not arrived",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			asOfFlag, _ := cmd.Flags().GetString("as-of")
			asOf, err := parseDateFlag(asOfFlag, timeNow())
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			eng, err := newEngine(db, metrics.Nop{}, nil)
			if err != nil {
				return err
			}
			summary, err := eng.DetectMissing(ctx, asOf)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf(
				"%s missing (%d overdue), %d resolved by uploads",
				cli.Plural(summary.Detected, "document"), summary.Overdue, summary.Resolved)))
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "detection date (YYYY-MM-DD, default today)")

	return cmd
}

func missingActionCmd(use, done, short string, action model.ActionType) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			eng, err := newEngine(db, metrics.Nop{}, nil)
			if err != nil {
				return err
			}
			if err := eng.ApplyAction(ctx, id, action); err != nil {
				return fmt.Errorf("failed to %s document %d: %w", use, id, err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Document %d %s", id, done)))
			return nil
		},
	}
}

func missingSnoozeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snooze <id>",
		Short: "Pause reminders for a missing document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
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
			until, err := eng.Snooze(ctx, id, days)
			if err != nil {
				return fmt.Errorf("failed to snooze document %d: %w", id, err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Document %d snoozed until %s", id, until.Format(common.DateLayout))))
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "days to snooze (default reminders.snooze_days)")

	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("invalid id %q", value), err)
	}
	return id, nil
}
