package dqk_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lakeward/dqk"
	"github.com/lakeward/dqk/test"
)

func TestBoltReporter(t *testing.T) {
	dir, err := ioutil.TempDir("", "boltreporter")
	test.ErrNil(t, err, "getting temp dir")
	defer os.RemoveAll(dir)

	br, err := dqk.NewBoltReporter(filepath.Join(dir, "reports.db"))
	test.ErrNil(t, err, "opening reporter")

	rep1 := dqk.Report{
		Started:   time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Processed: 10,
		Kept:      8,
		Dropped:   2,
		Counts:    map[string]uint64{"positive_qty": 2},
	}
	rep2 := dqk.Report{
		Started:           rep1.Started.Add(time.Hour),
		Processed:         5,
		Kept:              2,
		Failed:            true,
		FailedExpectation: "sane_price",
		Counts:            map[string]uint64{"sane_price": 1},
	}
	test.ErrNil(t, br.Record("orders", rep1), "recording first")
	test.ErrNil(t, br.Record("orders", rep2), "recording second")

	reps, err := br.Reports("orders")
	test.ErrNil(t, err, "reading reports")
	test.MustBe(t, len(reps), 2, "report count")
	test.MustBe(t, reps[0].Processed, 10, "first report")
	test.MustBe(t, reps[1].FailedExpectation, "sane_price", "second report")
	test.MustBe(t, reps[0].Counts, map[string]uint64{"positive_qty": 2}, "first counts")

	none, err := br.Reports("nonexistent")
	test.ErrNil(t, err, "reading empty pipeline")
	test.MustBe(t, len(none), 0, "no reports")

	test.ErrNil(t, br.Close(), "closing")
}
