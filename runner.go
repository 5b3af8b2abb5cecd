package dqk

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Runner drives a complete quality run: it pulls every record through a
// Checker's evaluation of a Source, hands the survivors to a Sink, and
// assembles a Report at the end. A Runner evaluates a single run
// synchronously; run several Runners over independent sources if you want
// parallelism.
type Runner struct {
	src     Source
	checker *Checker
	sink    Sink

	// Stats and Log may be replaced before calling Run.
	Stats Statter
	Log   Logger
}

// NewRunner returns a Runner over the given source, checker and sink.
func NewRunner(src Source, checker *Checker, sink Sink) *Runner {
	return &Runner{
		src:     src,
		checker: checker,
		sink:    sink,
		Stats:   NopStatter{},
		Log:     NopLogger{},
	}
}

// Run pulls records until the source is exhausted or a Fail expectation
// aborts the run. Errors produced by the source itself (e.g. an unparseable
// CSV line) are logged and counted but do not stop the run; sink errors do.
// The returned Report is valid in every case, including the abort case,
// where the returned error is the *QualityFailure.
func (r *Runner) Run() (Report, error) {
	start := time.Now()
	run := r.checker.Evaluate(r.src)
	rep := Report{Started: start}

	var runErr error
	for {
		rec, err := run.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			if qf, ok := err.(*QualityFailure); ok {
				rep.Failed = true
				rep.FailedExpectation = qf.Expectation
				runErr = qf
				break
			}
			r.Log.Printf("source error: %v", err)
			r.Stats.Count("quality.sourceerror", 1, 1)
			continue
		}
		if err := r.sink.Add(rec); err != nil {
			runErr = errors.Wrap(err, "adding record to sink")
			break
		}
		rep.Kept++
		r.Stats.Count("quality.kept", 1, 1)
	}

	if err := r.sink.Close(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "closing sink")
	}

	rep.Took = time.Since(start)
	rep.Processed = run.Position()
	rep.Warned = run.Warned()
	rep.Dropped = run.Dropped()
	rep.Counts = run.Counts()
	r.Stats.Timing("quality.run", rep.Took, 1)
	return rep, runErr
}
