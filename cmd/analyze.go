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

// analyzeCmd holds the flags for the 'analyze' subcommand.
type analyzeCmd struct {
	holdingsFile string
	documentFile string
	total        float64
	save         bool
}

func (*analyzeCmd) Name() string { return "analyze" }
func (*analyzeCmd) Synopsis() string {
	return "consolidate a holdings snapshot into an exposure report"
}
func (*analyzeCmd) Usage() string {
	return `pxs analyze [-holdings <file.jsonl> | -document <file.json>] [-total <usd>] [-save]

  Reads a holdings snapshot, runs the consolidation pipeline and prints the
  exposure report. -holdings expects one JSON holding per line; -document
  expects the nested per-platform document the collectors produce, which also
  carries the account total and a price snapshot. With -save the analysis is
  written to the analysis directory so 'recalc' can revisit it later.

Usage Examples:
# Analyze a flat holdings snapshot.
$ pxs analyze -holdings holdings.jsonl -total 12500

# Analyze a collector document and keep the result.
$ pxs analyze -document portfolio.json -save
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holdingsFile, "holdings", "", "holdings snapshot, one JSON holding per line")
	f.StringVar(&c.documentFile, "document", "", "nested portfolio document to flatten and analyze")
	f.Float64Var(&c.total, "total", 0, "externally known total portfolio value in USD, overrides the document's")
	f.BoolVar(&c.save, "save", false, "save the analysis to the analysis directory")
}

func (c *analyzeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	policy, err := ReadPolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	snap, err := c.load(policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	total := snap.TotalValue
	if c.total != 0 {
		total = exposure.M(c.total)
	}

	tracker := exposure.NewTracker(policy)
	report := tracker.Analyze(snap.Holdings, snap.Prices, total)
	logrus.WithFields(logrus.Fields{
		"holdings": len(snap.Holdings),
		"assets":   len(report.ConsolidatedAssets),
	}).Debug("analysis complete")

	printMarkdown(renderer.ReportMarkdown(report, renderer.ReportRenderOptions{
		DustItemizeFloor: exposure.M(policy.DustAggregation),
	}))

	if c.save {
		path, err := exposure.SaveAnalysis(AnalysisDir(), report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot save analysis: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Saved analysis to %s\n", path)
	}
	return subcommands.ExitSuccess
}

// load reads the snapshot from whichever input flag is set.
func (c *analyzeCmd) load(policy exposure.Policy) (*exposure.PortfolioSnapshot, error) {
	switch {
	case c.holdingsFile != "" && c.documentFile != "":
		return nil, fmt.Errorf("-holdings and -document are mutually exclusive")
	case c.documentFile != "":
		f, err := os.Open(c.documentFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return policy.ImportPortfolioDocument(f)
	case c.holdingsFile != "":
		f, err := os.Open(c.holdingsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		holdings, err := exposure.ImportHoldings(f)
		if err != nil {
			return nil, err
		}
		return &exposure.PortfolioSnapshot{Holdings: holdings}, nil
	default:
		return nil, fmt.Errorf("one of -holdings or -document is required")
	}
}
