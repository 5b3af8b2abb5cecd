package dqk_test

import (
	"io"
	"testing"

	"github.com/lakeward/dqk"
	"github.com/lakeward/dqk/mock"
	"github.com/lakeward/dqk/test"
	"github.com/pkg/errors"
)

func qtyRecords(qtys ...float64) []interface{} {
	recs := make([]interface{}, len(qtys))
	for i, q := range qtys {
		recs[i] = map[string]interface{}{"qty": q}
	}
	return recs
}

func drain(t *testing.T, run *dqk.Run) []interface{} {
	t.Helper()
	var out []interface{}
	for {
		rec, err := run.Record()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("draining run: %v", err)
		}
		out = append(out, rec)
	}
}

func TestWarnOnlyPreservesEverything(t *testing.T) {
	c := dqk.NewChecker()
	err := c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Warn})
	test.ErrNil(t, err, "registering")

	recs := qtyRecords(1, -1, 2, -3)
	run := c.Evaluate(mock.NewSource(recs...))
	out := drain(t, run)

	test.MustBe(t, out, recs, "warn-only output")
	test.MustBe(t, run.Counts(), map[string]uint64{"positive_qty": 2}, "counts")
	if run.Warned() != 2 || run.Dropped() != 0 {
		t.Fatalf("warned %d dropped %d", run.Warned(), run.Dropped())
	}
}

func TestDropExcludesFailingRecords(t *testing.T) {
	c := dqk.NewChecker()
	err := c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop})
	test.ErrNil(t, err, "registering")

	run := c.Evaluate(mock.NewSource(qtyRecords(1, -1, 2)...))
	out := drain(t, run)

	test.MustBe(t, out, qtyRecords(1, 2), "drop output")
	test.MustBe(t, run.Counts(), map[string]uint64{"positive_qty": 1}, "counts")
	test.MustBe(t, run.Dropped(), uint64(1), "dropped")
}

func TestFailAbortsRun(t *testing.T) {
	c := dqk.NewChecker()
	err := c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Fail})
	test.ErrNil(t, err, "registering")

	run := c.Evaluate(mock.NewSource(qtyRecords(1, -1, 2)...))

	rec, err := run.Record()
	test.ErrNil(t, err, "first record")
	test.MustBe(t, rec, map[string]interface{}{"qty": 1.0}, "first record")

	_, err = run.Record()
	qf, ok := err.(*dqk.QualityFailure)
	if !ok {
		t.Fatalf("expected QualityFailure, got %v", err)
	}
	test.MustBe(t, qf.Expectation, "positive_qty", "failure expectation")
	test.MustBe(t, qf.Record, map[string]interface{}{"qty": -1.0}, "failure record")
	test.MustBe(t, qf.Position, 2, "failure position")
	test.MustBe(t, qf.Counts, map[string]uint64{"positive_qty": 1}, "failure counts")

	// the run stays aborted
	_, err = run.Record()
	if err != qf {
		t.Fatalf("expected same failure, got %v", err)
	}
	test.MustBe(t, run.Failure(), qf, "Failure()")
}

func TestDropShortCircuitsLaterExpectations(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "reg 1")
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "small_qty", Predicate: dqk.LT("qty", 100), Action: dqk.Warn}), "reg 2")

	run := c.Evaluate(mock.NewSource(qtyRecords(-1, 150)...))
	out := drain(t, run)

	// record 1 is dropped by the first rule before the second ever runs;
	// record 2 survives with a warning.
	test.MustBe(t, out, qtyRecords(150), "output")
	test.MustBe(t, run.Counts(), map[string]uint64{"positive_qty": 1, "small_qty": 1}, "counts")
	test.MustBe(t, run.Warned(), uint64(1), "warned")
	test.MustBe(t, run.Dropped(), uint64(1), "dropped")
}

func TestEarlierWarnStillCountedOnDroppedRecord(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "small_qty", Predicate: dqk.LT("qty", 100), Action: dqk.Warn}), "reg 1")
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "reg 2")

	run := c.Evaluate(mock.NewSource(qtyRecords(-200)...))
	out := drain(t, run)

	if len(out) != 0 {
		t.Fatalf("expected no survivors: %v", out)
	}
	test.MustBe(t, run.Counts(), map[string]uint64{"small_qty": 1, "positive_qty": 1}, "counts")
}

func TestFirstFailWins(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "first", Predicate: dqk.GT("qty", 0), Action: dqk.Fail}), "reg 1")
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "second", Predicate: dqk.GT("qty", 10), Action: dqk.Fail}), "reg 2")

	run := c.Evaluate(mock.NewSource(qtyRecords(-5)...))
	_, err := run.Record()
	qf, ok := err.(*dqk.QualityFailure)
	if !ok {
		t.Fatalf("expected QualityFailure, got %v", err)
	}
	test.MustBe(t, qf.Expectation, "first", "first fail aborts")
	// the second predicate never ran
	test.MustBe(t, qf.Counts, map[string]uint64{"first": 1}, "counts")
}

func TestIdempotence(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "registering")

	recs := qtyRecords(1, -1, 2, -7, 3)
	run1 := c.Evaluate(mock.NewSource(recs...))
	out1 := drain(t, run1)
	run2 := c.Evaluate(mock.NewSource(recs...))
	out2 := drain(t, run2)

	test.MustBe(t, out1, out2, "outputs")
	test.MustBe(t, run1.Counts(), run2.Counts(), "counts")
}

func TestDuplicateName(t *testing.T) {
	c := dqk.NewChecker()
	exp := dqk.Expectation{Name: "dup", Predicate: dqk.Exists("x"), Action: dqk.Warn}
	test.ErrNil(t, c.Register(exp), "first registration")
	err := c.Register(exp)
	dup, ok := err.(*dqk.DuplicateNameError)
	if !ok {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	test.MustBe(t, dup.Name, "dup", "duplicate name")
}

func TestRegisterValidation(t *testing.T) {
	c := dqk.NewChecker()
	if err := c.Register(dqk.Expectation{Predicate: dqk.Exists("x"), Action: dqk.Warn}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := c.Register(dqk.Expectation{Name: "nopred", Action: dqk.Warn}); err == nil {
		t.Fatal("expected error for nil predicate")
	}
	if err := c.Register(dqk.Expectation{Name: "noact", Predicate: dqk.Exists("x"), Action: dqk.Action(42)}); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestPredicateFaultDefaultsToWarn(t *testing.T) {
	c := dqk.NewChecker()
	// qty is missing from one record, so GT faults on it
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Warn}), "registering")

	recs := []interface{}{
		map[string]interface{}{"qty": 1.0},
		map[string]interface{}{"other": "x"},
	}
	run := c.Evaluate(mock.NewSource(recs...))
	out := drain(t, run)

	test.MustBe(t, out, recs, "faulted record retained")
	test.MustBe(t, run.Counts(), map[string]uint64{"positive_qty": 1}, "fault counted")
}

func TestPredicateFaultDrop(t *testing.T) {
	c := dqk.NewChecker(dqk.OptCheckerOnFault(dqk.Drop))
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Warn}), "registering")

	run := c.Evaluate(mock.NewSource(
		map[string]interface{}{"qty": 1.0},
		map[string]interface{}{"other": "x"},
	))
	out := drain(t, run)
	test.MustBe(t, out, []interface{}{map[string]interface{}{"qty": 1.0}}, "faulted record dropped")
}

func TestPredicateFaultFail(t *testing.T) {
	c := dqk.NewChecker(dqk.OptCheckerOnFault(dqk.Fail))
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Warn}), "registering")

	run := c.Evaluate(mock.NewSource(map[string]interface{}{"other": "x"}))
	_, err := run.Record()
	qf, ok := err.(*dqk.QualityFailure)
	if !ok {
		t.Fatalf("expected QualityFailure, got %v", err)
	}
	if _, ok := qf.Err.(*dqk.PredicateError); !ok {
		t.Fatalf("expected wrapped PredicateError, got %v", qf.Err)
	}
}

func TestCountsSnapshotIsIsolated(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Warn}), "registering")

	run := c.Evaluate(mock.NewSource(qtyRecords(-1, -1)...))
	drain(t, run)
	counts := run.Counts()
	counts["positive_qty"] = 99
	test.MustBe(t, run.Counts(), map[string]uint64{"positive_qty": 2}, "counts unaffected by snapshot mutation")
}

func TestSourceErrorsPassThrough(t *testing.T) {
	srcErr := errors.New("flaky upstream")
	src := &mock.ResultSource{Results: []mock.Result{
		{Rec: map[string]interface{}{"qty": 1.0}},
		{Err: srcErr},
		{Rec: map[string]interface{}{"qty": 2.0}},
	}}
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "registering")
	run := c.Evaluate(src)

	_, err := run.Record()
	test.ErrNil(t, err, "first record")
	_, err = run.Record()
	if err != srcErr {
		t.Fatalf("expected source error, got %v", err)
	}
	// the run survives a source error
	rec, err := run.Record()
	test.ErrNil(t, err, "after source error")
	test.MustBe(t, rec, map[string]interface{}{"qty": 2.0}, "record after source error")
}

func TestEvaluateSnapshotsExpectations(t *testing.T) {
	c := dqk.NewChecker()
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "positive_qty", Predicate: dqk.GT("qty", 0), Action: dqk.Drop}), "registering")

	run := c.Evaluate(mock.NewSource(qtyRecords(-1, 1)...))
	// registered after Evaluate, must not affect the run in flight
	test.ErrNil(t, c.Register(dqk.Expectation{Name: "late", Predicate: dqk.GT("qty", 100), Action: dqk.Drop}), "late registration")

	out := drain(t, run)
	test.MustBe(t, out, qtyRecords(1), "late rule ignored")
	test.MustBe(t, c.Names(), []string{"positive_qty", "late"}, "names")
}
