// Package cmd implements the CLI application to consolidate portfolio
// exposure snapshots.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/exposure"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Commands lists the subcommands a main package registers.
var Commands = []subcommands.Command{
	&analyzeCmd{},
	&recalcCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	analysisDir = flag.String("analysis-dir", "data/analysis", "directory holding saved analysis files")
	policyFile  = flag.String("policy", "", "YAML policy file overriding the default classification tables")
	verbose     = flag.Bool("v", false, "enable debug logging")
)

// Setup configures logging from the global flags. A main package calls it
// once, after flag.Parse.
func Setup() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

// ReadPolicy resolves the active policy: the defaults, replaced by the
// -policy file when one is given.
func ReadPolicy() (exposure.Policy, error) {
	if *policyFile == "" {
		return exposure.DefaultPolicy(), nil
	}
	f, err := os.Open(*policyFile)
	if err != nil {
		return exposure.Policy{}, fmt.Errorf("cannot open policy file: %w", err)
	}
	defer f.Close()

	p, err := exposure.ReadPolicy(f)
	if err != nil {
		return exposure.Policy{}, fmt.Errorf("cannot read policy file %q: %w", *policyFile, err)
	}
	logrus.WithField("file", *policyFile).Debug("policy loaded")
	return p, nil
}

// AnalysisDir returns the directory where analyses are saved.
func AnalysisDir() string { return *analysisDir }
