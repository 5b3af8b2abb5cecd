package datagen

import (
	"testing"
	"time"
)

func TestGeneratorClean(t *testing.T) {
	gen := NewGenerator(1, 0)
	for i := 0; i < 50; i++ {
		rec := gen.Record()
		if rec["qty"].(float64) <= 0 {
			t.Fatalf("record %d has bad qty: %v", i, rec)
		}
		if _, ok := rec["station"]; !ok {
			t.Fatalf("record %d missing station: %v", i, rec)
		}
		lat := rec["lat"].(float64)
		if lat < -90 || lat > 90 {
			t.Fatalf("record %d has bad lat: %v", i, rec)
		}
		if _, err := time.Parse(time.RFC3339, rec["ts"].(string)); err != nil {
			t.Fatalf("record %d has bad ts: %v", i, rec)
		}
	}
}

func TestGeneratorDirtyEvery(t *testing.T) {
	gen := NewGenerator(1, 5)
	dirty := 0
	for i := 1; i <= 40; i++ {
		rec := gen.Record()
		bad := false
		if qty, ok := rec["qty"].(float64); ok && qty <= 0 {
			bad = true
		}
		if _, ok := rec["station"]; !ok {
			bad = true
		}
		if rec["lat"].(float64) > 90 {
			bad = true
		}
		if _, err := time.Parse(time.RFC3339, rec["ts"].(string)); err != nil {
			bad = true
		}
		if bad {
			dirty++
			if i%5 != 0 {
				t.Fatalf("record %d dirty off schedule: %v", i, rec)
			}
		} else if i%5 == 0 {
			t.Fatalf("record %d should be dirty: %v", i, rec)
		}
	}
	if dirty != 8 {
		t.Fatalf("expected 8 dirty records, got %d", dirty)
	}
}
