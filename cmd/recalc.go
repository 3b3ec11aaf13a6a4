package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/exposure"
	"github.com/etnz/exposure/renderer"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// recalcCmd holds the flags for the 'recalc' subcommand.
type recalcCmd struct {
	file string
	save bool
}

func (*recalcCmd) Name() string { return "recalc" }
func (*recalcCmd) Synopsis() string {
	return "replay a saved analysis under the current policy"
}
func (*recalcCmd) Usage() string {
	return `pxs recalc [-file <analysis.json>] [-save]

  Loads a saved analysis (the latest one by default), rebuilds it from its
  own raw holdings and price snapshot under the current policy, and prints
  the saved and recalculated figures side by side. Classification drift
  shows up as stability changes. With -save the recalculated analysis is
  written back to the analysis directory.

Usage Examples:
# Recheck the most recent analysis.
$ pxs recalc

# Recheck a specific file against a candidate policy.
$ pxs -policy next.yaml recalc -file data/analysis/portfolio_analysis_20260115_103000.json
`
}

func (c *recalcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "saved analysis to replay, latest when empty")
	f.BoolVar(&c.save, "save", false, "save the recalculated analysis")
}

func (c *recalcCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	policy, err := ReadPolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	saved, path, err := c.loadSaved()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	logrus.WithField("file", path).Debug("replaying analysis")

	tracker := exposure.NewTracker(policy)
	fresh := tracker.Recalculate(saved)

	printMarkdown(renderer.RecalcMarkdown(saved, fresh))

	if c.save {
		out, err := exposure.SaveAnalysis(AnalysisDir(), fresh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot save analysis: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Saved recalculated analysis to %s\n", out)
	}
	return subcommands.ExitSuccess
}

// loadSaved resolves the analysis to replay: -file when given, otherwise the
// newest file in the analysis directory.
func (c *recalcCmd) loadSaved() (*exposure.ExposureReport, string, error) {
	if c.file != "" {
		report, err := exposure.LoadAnalysis(c.file)
		return report, c.file, err
	}
	return exposure.LatestAnalysis(AnalysisDir())
}
