package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fafscore/pkg/roi"
)

// TestCSVStoreUpsert verifies upsert semantics and the flushed format
func TestCSVStoreUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores", "pixel_scores.csv")
	store := NewCSVStore(path)

	if err := store.Upsert("case1_OD", roi.Elliptic, 41.5); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert("case1_OD", roi.Elliptic, 42.25); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert("case1_OD", roi.PeripapillaryRing, 7.5); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Expected 2 stored scores after upsert, got %d", store.Len())
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open flushed file: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d rows", len(rows))
	}
	if rows[0][0] != "alias" || rows[0][1] != "roi_shape" || rows[0][2] != "pixel_score" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	// Elliptic sorts before peripapillary for the same alias.
	if rows[1][1] != "elliptic" || rows[1][2] != "42.25" {
		t.Errorf("Expected updated elliptic score 42.25, got %v", rows[1])
	}
	if rows[2][1] != "peripapillary" || rows[2][2] != "7.5" {
		t.Errorf("Expected peripapillary score 7.5, got %v", rows[2])
	}
}

// TestCSVStoreConcurrentUpserts verifies the store tolerates concurrent
// writers, one per scored image
func TestCSVStoreConcurrentUpserts(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "scores.csv"))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alias := string(rune('a'+i%8)) + "_OD"
			if err := store.Upsert(alias, roi.Elliptic, float64(i)); err != nil {
				t.Errorf("Upsert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 8 {
		t.Errorf("Expected 8 distinct aliases, got %d", store.Len())
	}
}
