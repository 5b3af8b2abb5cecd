package dqk

import (
	"github.com/pkg/errors"
)

// Action says what happens to a record when an expectation's predicate fails
// against it.
type Action int

const (
	// Warn counts and logs the violation, but the record is retained.
	Warn Action = iota
	// Drop counts the violation and excludes the record from the output. No
	// further expectations are evaluated against a dropped record.
	Drop
	// Fail counts the violation and aborts the whole run.
	Fail
)

func (a Action) String() string {
	switch a {
	case Warn:
		return "warn"
	case Drop:
		return "drop"
	case Fail:
		return "fail"
	}
	return "unknown"
}

// ParseAction parses the string representation of an Action as it appears in
// rule files and on the command line.
func ParseAction(s string) (Action, error) {
	switch s {
	case "warn":
		return Warn, nil
	case "drop":
		return Drop, nil
	case "fail":
		return Fail, nil
	}
	return Warn, errors.Errorf("unknown action '%s', expected warn, drop, or fail", s)
}

// Predicate is a boolean test over a single record. It must be a pure
// function of the record: no I/O, no state shared with other predicates. A
// returned error means the predicate itself could not be evaluated (e.g. the
// record is missing a field) and is reported separately from an ordinary
// false result.
type Predicate func(record interface{}) (bool, error)

// Expectation is a named data-quality rule: a predicate bound to exactly one
// action. Expectations are declared once at pipeline-definition time and
// evaluated once per record per run.
type Expectation struct {
	Name      string
	Predicate Predicate
	Action    Action
}
