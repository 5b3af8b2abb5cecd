package dqk

import (
	"fmt"
	"sort"
	"time"
)

// Report summarizes one quality run. When a Fail expectation aborts the run,
// the report is partial: counts cover everything evaluated up to the abort.
type Report struct {
	Started   time.Time         `json:"started"`
	Took      time.Duration     `json:"took"`
	Processed int               `json:"processed"`
	Kept      int               `json:"kept"`
	Warned    uint64            `json:"warned"`
	Dropped   uint64            `json:"dropped"`
	Counts    map[string]uint64 `json:"counts"`

	Failed            bool   `json:"failed"`
	FailedExpectation string `json:"failed_expectation,omitempty"`
}

// String renders the report in a form fit for the end of a CLI run.
func (r Report) String() string {
	s := fmt.Sprintf("processed %d records in %v: kept %d, warned %d, dropped %d",
		r.Processed, r.Took, r.Kept, r.Warned, r.Dropped)
	if r.Failed {
		s += fmt.Sprintf(", ABORTED by '%s'", r.FailedExpectation)
	}
	names := make([]string, 0, len(r.Counts))
	for name := range r.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s += fmt.Sprintf("\n  %s: %d violations", name, r.Counts[name])
	}
	return s
}
