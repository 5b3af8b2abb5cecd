package dqk

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// BoltReporter persists run reports in a bolt database, one bucket per
// pipeline name, keyed by the run's start time. It gives a pipeline a durable
// history of its violation counts without dragging in a real database.
type BoltReporter struct {
	Db *bolt.DB
}

// NewBoltReporter opens (or creates) the bolt file at filename.
func NewBoltReporter(filename string) (*BoltReporter, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	return &BoltReporter{Db: db}, nil
}

// Record appends the report to the named pipeline's history.
func (br *BoltReporter) Record(pipeline string, rep Report) error {
	val, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "marshaling report")
	}
	err = br.Db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(pipeline))
		if err != nil {
			return errors.Wrapf(err, "creating bucket '%s'", pipeline)
		}
		key := []byte(rep.Started.UTC().Format(time.RFC3339Nano))
		return errors.Wrap(b.Put(key, val), "putting report")
	})
	return errors.Wrap(err, "recording report")
}

// Reports returns the named pipeline's reports in run order. A pipeline with
// no history returns an empty slice.
func (br *BoltReporter) Reports(pipeline string) ([]Report, error) {
	var reps []Report
	err := br.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pipeline))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rep Report
			if err := json.Unmarshal(v, &rep); err != nil {
				return errors.Wrapf(err, "unmarshaling report at '%s'", k)
			}
			reps = append(reps, rep)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading reports")
	}
	return reps, nil
}

// Close syncs and closes the database.
func (br *BoltReporter) Close() error {
	if err := br.Db.Sync(); err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return br.Db.Close()
}
