// Command pxs consolidates crypto holdings snapshots into exposure reports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/exposure/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// handles shell completion requests and exits, a no-op otherwise
	completion().Complete("pxs")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	cmd.Setup()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the command line to the shell completion engine.
func completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"analysis-dir": predict.Dirs("*"),
			"policy":       predict.Files("*.yaml"),
			"v":            predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"analyze": {
				Flags: map[string]complete.Predictor{
					"holdings": predict.Files("*.jsonl"),
					"document": predict.Files("*.json"),
					"total":    predict.Something,
					"save":     predict.Nothing,
				},
			},
			"recalc": {
				Flags: map[string]complete.Predictor{
					"file": predict.Files("*.json"),
					"save": predict.Nothing,
				},
			},
			"topic": {
				Args: predict.Set{"readme", "exposure", "stability", "reconciliation", "policy", "*"},
			},
		},
	}
}
