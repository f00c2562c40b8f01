// Package memstore is the reference in-memory implementation of
// store.Store, modeled on the teacher's SQLiteDB wrapper (apps/api
// repository/sqlite.go) but backed by plain maps instead of SQL rows —
// appropriate for a contract whose only promise is per-record atomicity
// (spec §5), not a query language. Safe for concurrent use from many
// callers: every method takes the store's single RWMutex for its whole
// duration, matching spec §5's "per-operation atomicity" requirement
// exactly (no partial record is ever observable).
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/you/trainctl/internal/store"
)

// Store is an in-memory collection set. The zero value is not usable; use
// New.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Record
}

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]store.Record)}
}

func (s *Store) coll(name string) map[string]store.Record {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]store.Record)
		s.collections[name] = c
	}
	return c
}

func cloneRecord(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func (s *Store) FindAll(_ context.Context, collection string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collection]
	out := make([]store.Record, 0, len(c))
	for _, rec := range c {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Store) FindByID(_ context.Context, collection, id string) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collection]
	rec, ok := c[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func matches(rec store.Record, query store.Query) bool {
	for k, want := range query {
		got, ok := rec[k]
		if !ok {
			return false
		}
		if !equalJSONValue(got, want) {
			return false
		}
	}
	return true
}

// equalJSONValue compares two values the way equality matching over
// JSON-shaped data needs to: json.Unmarshal turns every number into
// float64, so a caller-supplied int query value must still match a stored
// float64.
func equalJSONValue(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (s *Store) FindByQuery(_ context.Context, collection string, query store.Query) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collection]
	out := make([]store.Record, 0)
	for _, rec := range c {
		if matches(rec, query) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, collection string, record store.Record) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := cloneRecord(record)
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	s.coll(collection)[id] = rec
	return cloneRecord(rec), nil
}

func (s *Store) Update(_ context.Context, collection, id string, patch store.Record) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	existing, ok := c[id]
	if !ok {
		return nil, nil
	}
	merged := cloneRecord(existing)
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = id
	c[id] = merged
	return cloneRecord(merged), nil
}

func (s *Store) Delete(_ context.Context, collection, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, ok := c[id]; !ok {
		return 0, nil
	}
	delete(c, id)
	return 1, nil
}

func (s *Store) ClearCollection(_ context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collection]
	n := len(c)
	s.collections[collection] = make(map[string]store.Record)
	return n, nil
}

var _ store.Store = (*Store)(nil)
