package dqk

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Tracker remembers which values have been seen for each uniqueness rule,
// backed by one leveldb per rule under a common directory. Because the
// backing store survives process restarts, a unique rule can span runs: point
// the tracker at a fresh directory to scope uniqueness to a single run.
//
// The Tracker exists outside the Checker on purpose. Expectation predicates
// are supposed to be pure functions of the record; duplicate detection
// fundamentally needs cross-record state, so that state lives here and is
// handed to the Unique predicate builder explicitly.
type Tracker struct {
	dirname string

	mu    sync.Mutex
	rules map[string]*leveldb.DB
}

// NewTracker returns a Tracker storing its state under dirname, creating the
// directory if needed.
func NewTracker(dirname string) (*Tracker, error) {
	if err := os.MkdirAll(dirname, 0700); err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	return &Tracker{
		dirname: dirname,
		rules:   make(map[string]*leveldb.DB),
	}, nil
}

// Seen reports whether val has been seen before under the given rule, and
// records it.
func (t *Tracker) Seen(rule, val string) (bool, error) {
	db, err := t.db(rule)
	if err != nil {
		return false, err
	}
	key := []byte(val)
	has, err := db.Has(key, nil)
	if err != nil {
		return false, errors.Wrapf(err, "checking '%s' in rule '%s'", val, rule)
	}
	if has {
		return true, nil
	}
	err = db.Put(key, nil, nil)
	return false, errors.Wrapf(err, "recording '%s' in rule '%s'", val, rule)
}

func (t *Tracker) db(rule string) (*leveldb.DB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if db, ok := t.rules[rule]; ok {
		return db, nil
	}
	path := t.dirname + "/" + rule
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", path)
	}
	t.rules[rule] = db
	return db, nil
}

// Close closes every rule's backing store, reporting all errors encountered.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	errs := make(Errors, 0)
	for rule, db := range t.rules {
		if err := db.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "closing store for rule '%v'", rule))
		}
	}
	t.rules = make(map[string]*leveldb.DB)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Errors collects multiple errors into one.
type Errors []error

func (errs Errors) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}
