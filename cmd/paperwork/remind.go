package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/engine"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/reminder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func remindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remind",
		Aliases: []string{"reminders"},
		Short:   "Generate and send reminders for missing documents",
	}

	cmd.AddCommand(remindGenerateCmd())
	cmd.AddCommand(remindProcessCmd())

	return cmd
}

func remindGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Show the reminders that would be sent, without sending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRemind(cmd, true)
		},
	}

	cmd.Flags().Bool("ignore-settings", false, "generate even for disabled types or exhausted budgets")

	return cmd
}

func remindProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Send due reminders",
		Long: `Generate reminders for every open missing document and dispatch the ones
that are due. Each reminder goes to the channels enabled for its document
type unless --channel is given. With a calendar configured, an all-day
deadline is created for well-established patterns.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRemind(cmd, false)
		},
	}

	cmd.Flags().Bool("ignore-settings", false, "generate even for disabled types or exhausted budgets")
	cmd.Flags().StringSlice("channel", nil, "override channels (app, email, push)")
	cmd.Flags().Bool("no-calendar", false, "skip calendar deadlines")

	return cmd
}

func runRemind(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ignore, _ := cmd.Flags().GetBool("ignore-settings")
	opts := engine.RemindOptions{
		DryRun:          dryRun,
		RespectSettings: viper.GetBool("reminders.respect_settings") && !ignore,
	}

	if !dryRun {
		values, _ := cmd.Flags().GetStringSlice("channel")
		channels, err := parseChannels(values)
		if err != nil {
			return err
		}
		opts.Channels = channels

		if skip, _ := cmd.Flags().GetBool("no-calendar"); !skip {
			cal, err := buildCalendar(ctx)
			if err != nil {
				return err
			}
			opts.Calendar = cal
		}
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

	summary, err := eng.RunReminders(ctx, opts)
	if err != nil {
		return err
	}

	printBatch(out, summary.Batch)
	if summary.Result != nil {
		printResult(out, summary.Result)
	}
	return nil
}

func printBatch(out io.Writer, batch *reminder.ReminderBatch) {
	if batch.TotalReminders == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf(
			"No reminders due (%s open)", cli.Plural(batch.TotalPending, "document"))))
		return
	}

	rows := make([][]string, len(batch.Reminders))
	for i, r := range batch.Reminders {
		rows[i] = []string{
			strconv.FormatInt(r.MissingDocumentID, 10),
			r.Title,
			string(r.ReminderType),
			cli.UrgencyStyle(r.Urgency).Render(string(r.Urgency)),
			r.ScheduledFor.Format(common.DateLayout),
		}
	}
	_, _ = fmt.Fprintln(out, cli.FormatTitle("Reminders"))
	_, _ = fmt.Fprint(out, cli.RenderTable([]string{"ID", "TITLE", "TYPE", "URGENCY", "SCHEDULED"}, rows))

	for _, d := range batch.Deadlines {
		verb := "Linked"
		if d.Created {
			verb = "Created"
		}
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s calendar deadline %q on %s",
			verb, d.Title, d.Date.Format(common.DateLayout))))
	}
}

func printResult(out io.Writer, result *reminder.ProcessResult) {
	msg := fmt.Sprintf("Sent %s (%d processed)", cli.Plural(result.Sent, "reminder"), result.Processed)
	if result.Failed > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s, %d channel sends failed", msg, result.Failed)))
		return
	}
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(msg))
}
