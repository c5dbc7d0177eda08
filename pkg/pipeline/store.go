package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"fafscore/pkg/roi"
)

// ScoreStore receives (image identity, score) pairs with upsert
// semantics: writing a score for an already-scored image replaces the
// earlier value. Implementations must tolerate concurrent upserts.
type ScoreStore interface {
	Upsert(alias string, shape roi.Shape, score float64) error
}

// CSVStore is a file-backed ScoreStore: one row per (alias, shape),
// written on Flush. It stands in for the score table of the study
// database.
type CSVStore struct {
	path string

	mu     sync.Mutex
	scores map[scoreKey]float64
}

type scoreKey struct {
	alias string
	shape roi.Shape
}

// NewCSVStore creates a store that will write to path on Flush.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{
		path:   path,
		scores: make(map[scoreKey]float64),
	}
}

// Upsert records the score for (alias, shape), replacing any earlier
// value.
func (s *CSVStore) Upsert(alias string, shape roi.Shape, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[scoreKey{alias, shape}] = score
	return nil
}

// Len returns the number of stored scores.
func (s *CSVStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scores)
}

// Flush writes all stored scores to the CSV file, sorted by alias then
// shape for stable output.
func (s *CSVStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]scoreKey, 0, len(s.scores))
	for k := range s.scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].alias != keys[j].alias {
			return keys[i].alias < keys[j].alias
		}
		return keys[i].shape < keys[j].shape
	})

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating score directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("error creating score file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"alias", "roi_shape", "pixel_score"}); err != nil {
		return err
	}
	for _, k := range keys {
		record := []string{k.alias, k.shape.String(), strconv.FormatFloat(s.scores[k], 'g', -1, 64)}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
