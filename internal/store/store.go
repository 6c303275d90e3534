// Package store implements the durable purchase record store: an in-memory
// record set backed by a JSONL snapshot file, plus the TF-IDF index derived
// from it. Every mutation rebuilds the index from scratch and rewrites the
// whole snapshot, which keeps ranking deterministic at small record counts.
package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/index"
	"github.com/hyperjump/kaimono/internal/models"
)

// Store owns the record set, its snapshot file, and the derived index.
// A single RWMutex covers all three: a mutation mutates, rebuilds, and
// persists as one unit, and queries share the read lock.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]models.Record
	ids     []string // insertion order; row i of matrix corresponds to ids[i]

	vectorizer *index.Vectorizer
	matrix     [][]float64

	logger *zap.Logger // optional; when set, logs mutations
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for debug output (upserts, resets, rebuilds).
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates a store backed by the snapshot file at path, loading it if it
// exists. A malformed snapshot line fails the whole open; there is no
// partial-load recovery.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]models.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", path, err)
		}
		s.rebuild()
	}
	return s, nil
}

// load reads one JSON-encoded record per line into the in-memory set.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec models.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("malformed record on line %d: %w", line, err)
		}
		if rec.ID == "" {
			return fmt.Errorf("malformed record on line %d: missing id", line)
		}
		if _, exists := s.records[rec.ID]; !exists {
			s.ids = append(s.ids, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return scanner.Err()
}

// save rewrites the entire snapshot from the in-memory set. The write goes
// to a temp file first and is renamed into place so a crash mid-write never
// leaves a truncated snapshot.
func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, id := range s.ids {
		rec := s.records[id]
		if err := enc.Encode(&rec); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("encode record %s: %w", id, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// rebuild refits the transform over every record text in insertion order.
// An empty corpus clears the transform so queries short-circuit instead of
// fitting on nothing. Callers hold the write lock.
func (s *Store) rebuild() {
	if len(s.ids) == 0 {
		s.vectorizer = nil
		s.matrix = nil
		return
	}
	texts := make([]string, len(s.ids))
	for i, id := range s.ids {
		texts[i] = s.records[id].Metadata.Text
	}
	v := index.NewVectorizer()
	v.Fit(texts)
	matrix := make([][]float64, len(texts))
	for i, text := range texts {
		matrix[i] = v.Transform(text)
	}
	s.vectorizer = v
	s.matrix = matrix
}

// Upsert inserts or fully replaces the record with the given id, rebuilds
// the index, and rewrites the snapshot. Returns the record count after the
// mutation.
func (s *Store) Upsert(ctx context.Context, id string, md models.Metadata) (int, error) {
	md.Date = NormalizeDate(md.Date)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; !exists {
		s.ids = append(s.ids, id)
	}
	s.records[id] = models.Record{ID: id, Metadata: md}
	s.rebuild()
	if err := s.save(); err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.Debug("record upserted", zap.String("id", id), zap.Int("count", len(s.ids)))
	}
	return len(s.ids), nil
}

// Reset clears all records and deletes the snapshot file. Idempotent.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]models.Record)
	s.ids = nil
	s.vectorizer = nil
	s.matrix = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("store reset", zap.String("path", s.path))
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Query returns the top-k records by cosine similarity to text, sorted by
// descending score with ties kept in insertion order. An empty or untrained
// store and k <= 0 both return an empty list, never an error.
func (s *Store) Query(ctx context.Context, text string, k int) []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.vectorizer == nil || len(s.ids) == 0 || k <= 0 {
		return []models.Match{}
	}
	query := s.vectorizer.Transform(text)
	hits := index.Rank(query, s.matrix)
	if k > len(hits) {
		k = len(hits)
	}
	matches := make([]models.Match, k)
	for i := 0; i < k; i++ {
		id := s.ids[hits[i].Row]
		matches[i] = models.Match{
			ID:       id,
			Score:    hits[i].Score,
			Metadata: s.records[id].Metadata,
		}
	}
	return matches
}

// Records returns a copy of all records in insertion order.
func (s *Store) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.records[id]
	}
	return out
}

// SnapshotSizeBytes returns the on-disk size of the snapshot, or 0 when it
// does not exist.
func (s *Store) SnapshotSizeBytes() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
