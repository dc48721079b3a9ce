package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Inspect learned upload patterns",
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsShowCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			patterns, err := db.GetPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}
			if len(patterns) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No patterns yet. Run: paperwork analyze"))
				return nil
			}

			rows := make([][]string, len(patterns))
			for i, p := range patterns {
				rows[i] = []string{
					p.DocumentType.Label(),
					p.Source,
					string(p.Frequency),
					cli.ConfidenceStyle(p.Confidence).Render(fmt.Sprintf("%s (%.0f)", p.Confidence, p.ConfidenceScore)),
					fmt.Sprintf("%d", p.UploadsAnalyzed),
					formatDate(p.NextExpectedDate),
				}
			}
			_, _ = fmt.Fprint(out, cli.RenderTable(
				[]string{"TYPE", "SOURCE", "FREQUENCY", "CONFIDENCE", "UPLOADS", "NEXT"}, rows))
			return nil
		},
	}

	return cmd
}

func patternsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <document-type> <source>",
		Short: "Show the statistics behind one pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			docType, err := parseDocumentType(args[0])
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := db.GetPattern(ctx, docType, args[1])
			if errors.Is(err, storage.ErrPatternNotFound) {
				return common.NewUserError(fmt.Sprintf("no pattern for %s from %s", docType.Label(), args[1]), nil)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(
				fmt.Sprintf("%s from %s", p.DocumentType.Label(), p.Source), describePattern(p)))
			return nil
		},
	}

	return cmd
}

func describePattern(p *model.DocumentPattern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frequency:     %s (%s)\n", p.Frequency, p.Stability)
	fmt.Fprintf(&b, "Confidence:    %s, score %.1f\n", cli.ConfidenceStyle(p.Confidence).Render(string(p.Confidence)), p.ConfidenceScore)
	fmt.Fprintf(&b, "Uploads:       %d between %s and %s\n", p.UploadsAnalyzed,
		p.DateRange.Start.Format(common.DateLayout), p.DateRange.End.Format(common.DateLayout))
	if p.Statistics != nil {
		s := p.Statistics
		fmt.Fprintf(&b, "Interval:      %.1f days avg, %d to %d, std dev %.1f\n",
			s.AverageIntervalDays, s.MinIntervalDays, s.MaxIntervalDays, s.IntervalStdDev)
		fmt.Fprintf(&b, "Consistency:   %.2f (cv %.2f)\n", s.ConsistencyScore, s.CoefficientOfVariation)
	}
	if p.ExpectedDayOfMonth != nil {
		fmt.Fprintf(&b, "Usual day:     %d\n", *p.ExpectedDayOfMonth)
	}
	fmt.Fprintf(&b, "Next expected: %s (grace %d days)\n", formatDate(p.NextExpectedDate), p.GracePeriodDays)
	fmt.Fprintf(&b, "Analyzed:      %s", p.AnalyzedAt.Format(common.DateLayout))

	if len(p.PatternChanges) > 0 {
		b.WriteString("\n\nCadence changes:")
		for _, c := range p.PatternChanges {
			fmt.Fprintf(&b, "\n  %s  %s → %s (%d uploads)",
				c.DetectedAt.Format(common.DateLayout), c.FromFrequency, c.ToFrequency, c.UploadsAnalyzed)
		}
	}
	return b.String()
}
