package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/spf13/cobra"
)

func expectedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expected",
		Short: "Forecast documents due soon",
		Long: `List the documents learned patterns expect within the next few days,
soonest first. Whether a document is already missing is not considered.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
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
			expected, err := eng.ExpectedDocuments(ctx, days)
			if err != nil {
				return err
			}
			if len(expected) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("Nothing expected in that window"))
				return nil
			}

			rows := make([][]string, len(expected))
			for i, e := range expected {
				due := "today"
				if e.DaysUntilExpected > 0 {
					due = "in " + cli.Plural(e.DaysUntilExpected, "day")
				}
				rows[i] = []string{
					e.Pattern.DocumentType.Label(),
					e.Pattern.Source,
					formatDate(e.Pattern.NextExpectedDate),
					due,
					cli.ConfidenceStyle(e.Pattern.Confidence).Render(string(e.Pattern.Confidence)),
					strconv.Itoa(e.Pattern.UploadsAnalyzed),
				}
			}
			_, _ = fmt.Fprintln(out, cli.FormatTitle("Expected documents"))
			_, _ = fmt.Fprint(out, cli.RenderTable(
				[]string{"TYPE", "SOURCE", "EXPECTED", "DUE", "CONFIDENCE", "UPLOADS"}, rows))
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "look-ahead window in days (default analysis.lookahead_days)")

	return cmd
}
