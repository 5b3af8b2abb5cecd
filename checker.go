package dqk

import (
	"github.com/pkg/errors"
)

// Checker holds an ordered set of expectations. Expectations are registered
// once at pipeline-definition time, then the Checker can be pointed at any
// number of Sources via Evaluate. The Checker itself accumulates nothing;
// each Run owns its own violation counts, so concurrent evaluations over
// independent sources are safe.
type Checker struct {
	expectations []Expectation
	names        map[string]struct{}

	onFault Action
	log     Logger
	stats   Statter
}

// CheckerOption is a functional option to pass to NewChecker.
type CheckerOption func(c *Checker)

// OptCheckerOnFault sets the action applied when a predicate itself fails to
// evaluate (as opposed to returning false). The fault is always counted
// against the faulting expectation; this option only decides what happens to
// the record. The default is Warn: count, log, and keep the record.
func OptCheckerOnFault(a Action) CheckerOption {
	return func(c *Checker) {
		c.onFault = a
	}
}

// OptCheckerLogger sets the Logger used to report warnings and predicate
// faults during evaluation.
func OptCheckerLogger(l Logger) CheckerOption {
	return func(c *Checker) {
		c.log = l
	}
}

// OptCheckerStatter sets the Statter which receives per-expectation violation
// counts as they happen.
func OptCheckerStatter(s Statter) CheckerOption {
	return func(c *Checker) {
		c.stats = s
	}
}

// NewChecker returns a Checker with no expectations registered.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		names:   make(map[string]struct{}),
		onFault: Warn,
		log:     NopLogger{},
		stats:   NopStatter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds an expectation to the active set. Evaluation order across
// expectations is registration order. Registering a second expectation with
// the same name returns a *DuplicateNameError.
func (c *Checker) Register(exp Expectation) error {
	if exp.Name == "" {
		return errors.New("expectation must have a name")
	}
	if exp.Predicate == nil {
		return errors.Errorf("expectation '%s' must have a predicate", exp.Name)
	}
	if exp.Action != Warn && exp.Action != Drop && exp.Action != Fail {
		return errors.Errorf("expectation '%s' has unknown action %d", exp.Name, exp.Action)
	}
	if _, exists := c.names[exp.Name]; exists {
		return &DuplicateNameError{Name: exp.Name}
	}
	c.names[exp.Name] = struct{}{}
	c.expectations = append(c.expectations, exp)
	return nil
}

// RegisterAll registers each expectation in order, stopping at the first
// error.
func (c *Checker) RegisterAll(exps []Expectation) error {
	for _, exp := range exps {
		if err := c.Register(exp); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the expectation names in registration order.
func (c *Checker) Names() []string {
	names := make([]string, len(c.expectations))
	for i, exp := range c.expectations {
		names[i] = exp.Name
	}
	return names
}

// Evaluate returns a lazy Run over the given source. The expectation set is
// snapshotted, so registering more expectations afterward does not affect
// runs already in flight.
func (c *Checker) Evaluate(src Source) *Run {
	exps := make([]Expectation, len(c.expectations))
	copy(exps, c.expectations)
	return &Run{
		src:     src,
		exps:    exps,
		onFault: c.onFault,
		log:     c.log,
		stats:   c.stats,
		counts:  make(map[string]uint64),
	}
}

// Run is a single evaluation of a Checker's expectations over one Source. It
// implements Source itself: Record returns the next surviving record,
// io.EOF when the underlying source is exhausted, or a *QualityFailure if an
// expectation with the Fail action was violated. A Run is single-threaded
// and must not be shared across goroutines.
type Run struct {
	src     Source
	exps    []Expectation
	onFault Action
	log     Logger
	stats   Statter

	counts  map[string]uint64
	pos     int
	warned  uint64
	dropped uint64
	failure *QualityFailure
}

// Record pulls records from the underlying source until one survives every
// expectation, and returns it. Errors from the source itself (including
// io.EOF) pass through unchanged. Once a Fail expectation aborts the run,
// every subsequent call returns the same *QualityFailure.
func (r *Run) Record() (interface{}, error) {
	if r.failure != nil {
		return nil, r.failure
	}
	for {
		rec, err := r.src.Record()
		if err != nil {
			return nil, err
		}
		r.pos++
		keep, err := r.check(rec)
		if err != nil {
			return nil, err
		}
		if keep {
			return rec, nil
		}
	}
}

// check evaluates every expectation against rec in registration order. A
// Drop violation short-circuits the remaining expectations for this record; a
// Fail violation aborts the run immediately.
func (r *Run) check(rec interface{}) (keep bool, err error) {
	for _, exp := range r.exps {
		ok, perr := exp.Predicate(rec)
		action := exp.Action
		var fault *PredicateError
		if perr != nil {
			fault = &PredicateError{Expectation: exp.Name, Position: r.pos, Record: rec, Err: perr}
			r.log.Printf("predicate fault: %v", fault)
			r.stats.Count("quality.fault", 1, 1, exp.Name)
			ok = false
			action = r.onFault
		}
		if ok {
			continue
		}
		r.counts[exp.Name]++
		r.stats.Count("quality.violation", 1, 1, exp.Name)
		switch action {
		case Warn:
			r.warned++
			if fault == nil {
				r.log.Debugf("warn: expectation '%s' violated by record %d (%v)", exp.Name, r.pos, rec)
			}
		case Drop:
			r.dropped++
			return false, nil
		case Fail:
			r.failure = &QualityFailure{
				Expectation: exp.Name,
				Record:      rec,
				Position:    r.pos,
				Counts:      r.Counts(),
			}
			if fault != nil {
				r.failure.Err = fault
			}
			if ss, ok := r.src.(SchemaSource); ok {
				r.failure.Schema = ss.Schema()
			}
			return false, r.failure
		}
	}
	return true, nil
}

// Counts returns a snapshot of the per-expectation violation counts
// accumulated so far. The returned map is a copy.
func (r *Run) Counts() map[string]uint64 {
	counts := make(map[string]uint64, len(r.counts))
	for name, n := range r.counts {
		counts[name] = n
	}
	return counts
}

// Position returns the number of records pulled from the source so far.
func (r *Run) Position() int { return r.pos }

// Warned returns the number of warn-action violations so far. A record which
// trips several warn expectations is counted once per expectation.
func (r *Run) Warned() uint64 { return r.warned }

// Dropped returns the number of records excluded so far.
func (r *Run) Dropped() uint64 { return r.dropped }

// Failure returns the QualityFailure which aborted the run, or nil.
func (r *Run) Failure() *QualityFailure { return r.failure }
