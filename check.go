package dqk

import (
	"log"
	"os"

	"github.com/pkg/errors"
)

// CheckConfig is the part of a check command's configuration shared by every
// source. Source packages embed it in their Main structs so all the check
// subcommands take the same quality-related flags.
type CheckConfig struct {
	Rules      string `help:"Path to JSON rules file defining the expectations."`
	Output     string `help:"File to write surviving records to. Empty means stdout."`
	ReportDB   string `help:"Bolt database file to append the run report to. Empty disables reporting."`
	Pipeline   string `help:"Pipeline name used when storing run reports."`
	OnFault    string `help:"Action applied when a predicate fails to evaluate: warn, drop, or fail."`
	TrackerDir string `help:"Directory for the unique-value tracker. Required if any rule uses the unique op."`
	Verbose    bool   `help:"Enable verbose logging."`
}

// NewCheckConfig returns a CheckConfig with the default configuration.
func NewCheckConfig() CheckConfig {
	return CheckConfig{
		Pipeline: "default",
		OnFault:  "warn",
	}
}

// Logger returns the logger selected by the Verbose flag.
func (c CheckConfig) Logger() Logger {
	l := log.New(os.Stderr, "", log.LstdFlags)
	if c.Verbose {
		return VerboseLogger{l}
	}
	return StdLogger{l}
}

// Check loads and compiles the configured rules, runs them against src, and
// stores the report if a report database was configured. This is the body of
// every check subcommand; only the source differs.
func (c CheckConfig) Check(src Source) (Report, error) {
	logger := c.Logger()

	rules, err := LoadRules(c.Rules)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading rules")
	}

	var tracker *Tracker
	if c.TrackerDir != "" {
		tracker, err = NewTracker(c.TrackerDir)
		if err != nil {
			return Report{}, errors.Wrap(err, "opening tracker")
		}
		defer tracker.Close()
	}

	exps, err := CompileRules(rules, tracker)
	if err != nil {
		return Report{}, errors.Wrap(err, "compiling rules")
	}

	onFault, err := ParseAction(c.OnFault)
	if err != nil {
		return Report{}, errors.Wrap(err, "parsing on-fault action")
	}

	checker := NewChecker(OptCheckerOnFault(onFault), OptCheckerLogger(logger))
	if err := checker.RegisterAll(exps); err != nil {
		return Report{}, errors.Wrap(err, "registering expectations")
	}

	sink, err := NewFileSink(c.Output)
	if err != nil {
		return Report{}, errors.Wrap(err, "getting sink")
	}

	runner := NewRunner(src, checker, sink)
	runner.Log = logger

	rep, runErr := runner.Run()

	if c.ReportDB != "" {
		reporter, err := NewBoltReporter(c.ReportDB)
		if err != nil {
			logger.Printf("opening report db: %v", err)
		} else {
			if err := reporter.Record(c.Pipeline, rep); err != nil {
				logger.Printf("storing report: %v", err)
			}
			if err := reporter.Close(); err != nil {
				logger.Printf("closing report db: %v", err)
			}
		}
	}

	logger.Printf("%v", rep)
	return rep, runErr
}
