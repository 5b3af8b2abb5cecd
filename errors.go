package dqk

import (
	"fmt"
)

// DuplicateNameError is returned by Checker.Register when an expectation with
// the same name has already been registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("expectation '%s' is already registered", e.Name)
}

// PredicateError wraps a failure of a predicate's own evaluation, as opposed
// to a predicate returning false. Position is the 1-based position of the
// offending record in the source's iteration order.
type PredicateError struct {
	Expectation string
	Position    int
	Record      interface{}
	Err         error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("evaluating expectation '%s' against record %d (%v): %v", e.Expectation, e.Position, e.Record, e.Err)
}

// Cause supports the pkg/errors unwrapping convention.
func (e *PredicateError) Cause() error { return e.Err }

// QualityFailure aborts a run. It is returned from Run.Record when an
// expectation with the Fail action is violated, and carries the offending
// record plus a snapshot of the violation counts accumulated up to the abort.
type QualityFailure struct {
	Expectation string
	Record      interface{}
	Position    int
	Counts      map[string]uint64
	Schema      []Field

	// Err is non-nil when the failure was triggered by a predicate fault
	// under a fail on-fault policy, rather than a plain false result.
	Err error
}

func (e *QualityFailure) Error() string {
	msg := fmt.Sprintf("expectation '%s' failed on record %d (%s), counts so far: %v", e.Expectation, e.Position, e.describeRecord(), e.Counts)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// describeRecord renders the offending record, using the source schema for
// field ordering when one was available.
func (e *QualityFailure) describeRecord() string {
	if len(e.Schema) == 0 {
		return fmt.Sprintf("%v", e.Record)
	}
	m, ok := recordMap(e.Record)
	if !ok {
		return fmt.Sprintf("%v", e.Record)
	}
	s := ""
	for i, f := range e.Schema {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%v", f.Name, m[f.Name])
	}
	return s
}

// recordMap views a record as a map[string]interface{} if it is one of the
// map shapes the built-in sources produce.
func recordMap(rec interface{}) (map[string]interface{}, bool) {
	switch m := rec.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		ret := make(map[string]interface{}, len(m))
		for k, v := range m {
			ret[k] = v
		}
		return ret, true
	}
	return nil, false
}
