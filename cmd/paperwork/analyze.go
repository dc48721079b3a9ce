package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Learn upload patterns and detect missing documents",
		Long: `Analyze the upload history of every document type and source, store the
learned cadence, then check which expected documents have not arrived yet.`,
		RunE: runAnalyze,
	}

	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().Bool("skip-detect", false, "only learn patterns")
	cmd.Flags().String("as-of", "", "detect missing documents as of this date (YYYY-MM-DD)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	skipDetect, _ := cmd.Flags().GetBool("skip-detect")
	asOfFlag, _ := cmd.Flags().GetString("as-of")

	db, cleanup, err := getDatabase(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var progress func(done, total int)
	if !noProgress && isTerminal() {
		var bar *cli.Progress
		progress = func(done, total int) {
			if bar == nil {
				bar = cli.NewProgress(out, total, "Analyzing upload streams...")
			}
			bar.Update(done, total)
		}
	}

	eng, err := newEngine(db, metrics.Nop{}, progress)
	if err != nil {
		return err
	}

	summary, err := eng.AnalyzePatterns(ctx)
	if err != nil {
		return err
	}
	if summary.Streams == 0 {
		return common.NewUserError("No uploads recorded yet. Add some with: paperwork uploads add", common.ErrNoUploads)
	}

	_, _ = fmt.Fprintln(out, cli.RenderBox("Pattern analysis", formatFrequencies(summary.ByFrequency)+
		fmt.Sprintf("\n\n%s learned, %s changed",
			cli.Plural(summary.Saved, "pattern"), cli.Plural(summary.Changed, "cadence"))))

	if skipDetect {
		return nil
	}

	asOf, err := parseDateFlag(asOfFlag, timeNow())
	if err != nil {
		return err
	}
	detected, err := eng.DetectMissing(ctx, asOf)
	if err != nil {
		return err
	}

	switch {
	case detected.Detected == 0:
		_, _ = fmt.Fprintln(out, cli.FormatSuccess("Nothing missing. Everything expected has arrived."))
	case detected.Overdue > 0:
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s expected, %d past the grace period. Run: paperwork missing list",
			cli.Plural(detected.Detected, "document"), detected.Overdue)))
	default:
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s expected but still within the grace period",
			cli.Plural(detected.Detected, "document"))))
	}
	if detected.Resolved > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s resolved by new uploads", cli.Plural(detected.Resolved, "document"))))
	}
	return nil
}

func formatFrequencies(byFrequency map[model.Frequency]int) string {
	freqs := make([]string, 0, len(byFrequency))
	for f := range byFrequency {
		freqs = append(freqs, string(f))
	}
	sort.Strings(freqs)

	lines := make([]string, 0, len(freqs))
	for _, f := range freqs {
		lines = append(lines, fmt.Sprintf("%-12s %d", f, byFrequency[model.Frequency(f)]))
	}
	return strings.Join(lines, "\n")
}
