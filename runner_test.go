package dqk_test

import (
	"testing"

	"github.com/lakeward/dqk"
	"github.com/lakeward/dqk/mock"
	"github.com/lakeward/dqk/test"
	"github.com/pkg/errors"
)

func TestRunnerHappyPath(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "reg 1")
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "small_qty", Predicate: dqk.LT("qty", 100), Action: dqk.Warn}), "reg 2")

	sink := &dqk.CountingSink{}
	stats := &mock.RecordingStatter{}
	runner := dqk.NewRunner(mock.NewSource(qtyRecords(1, -1, 150, 2)...), c, sink)
	runner.Stats = stats

	rep, err := runner.Run()
	test.ErrNil(t, err, "running")

	test.MustBe(t, rep.Processed, 4, "processed")
	test.MustBe(t, rep.Kept, 3, "kept")
	test.MustBe(t, rep.Dropped, uint64(1), "dropped")
	test.MustBe(t, rep.Warned, uint64(1), "warned")
	test.MustBe(t, rep.Counts, map[string]uint64{"positive_qty": 1, "small_qty": 1}, "counts")
	test.MustBe(t, rep.Failed, false, "failed")
	test.MustBe(t, len(sink.Records), 3, "sink records")
	test.MustBe(t, stats.Counts["quality.kept"], int64(3), "kept stat")
}

func TestRunnerFailAbort(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Fail}), "registering")

	sink := &dqk.CountingSink{}
	runner := dqk.NewRunner(mock.NewSource(qtyRecords(1, -1, 2)...), c, sink)

	rep, err := runner.Run()
	qf, ok := err.(*dqk.QualityFailure)
	if !ok {
		t.Fatalf("expected QualityFailure, got %v", err)
	}
	test.MustBe(t, qf.Expectation, "positive_qty", "failure expectation")
	test.MustBe(t, rep.Failed, true, "report failed")
	test.MustBe(t, rep.FailedExpectation, "positive_qty", "report expectation")
	test.MustBe(t, rep.Kept, 1, "partial kept")
	test.MustBe(t, rep.Counts, map[string]uint64{"positive_qty": 1}, "partial counts")
}

func TestRunnerSourceErrorsAreCountedNotFatal(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "registering")

	src := &mock.ResultSource{Results: []mock.Result{
		{Rec: map[string]interface{}{"qty": 1.0}},
		{Err: errors.New("bad line")},
		{Rec: map[string]interface{}{"qty": 2.0}},
	}}
	sink := &dqk.CountingSink{}
	stats := &mock.RecordingStatter{}
	runner := dqk.NewRunner(src, c, sink)
	runner.Stats = stats

	rep, err := runner.Run()
	test.ErrNil(t, err, "running")
	test.MustBe(t, rep.Kept, 2, "kept")
	test.MustBe(t, stats.Counts["quality.sourceerror"], int64(1), "source error stat")
}
