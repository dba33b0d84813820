// Package recordstest provides in-memory record and index stores for tests.
package recordstest

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/imrishuroy/widget-consumer/internal/records"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// Store is an in-memory records.Store. Set the Err fields to make the
// matching call fail.
type Store struct {
	mu      sync.Mutex
	records map[string]widgets.Record

	GetErr    error
	PutErr    error
	DeleteErr error

	Puts    int
	Deletes int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{records: map[string]widgets.Record{}}
}

func (s *Store) Get(ctx context.Context, key widgets.Key) (widgets.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	rec, ok := s.records[key.String()]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, records.ErrNotFound)
	}
	return maps.Clone(rec), nil
}

func (s *Store) Put(ctx context.Context, key widgets.Key, rec widgets.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	if s.PutErr != nil {
		return s.PutErr
	}
	s.records[key.String()] = maps.Clone(rec)
	return nil
}

func (s *Store) Delete(ctx context.Context, key widgets.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.records, key.String())
	return nil
}

// Seed stores rec at key without counting a Put.
func (s *Store) Seed(key widgets.Key, rec widgets.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key.String()] = maps.Clone(rec)
}

// Record returns the stored record at key, or nil.
func (s *Store) Record(key widgets.Key) widgets.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.records[key.String()])
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Index is an in-memory records.IndexStore.
type Index struct {
	mu      sync.Mutex
	entries map[string]widgets.Record

	UpsertErr error
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{entries: map[string]widgets.Record{}}
}

func (i *Index) Upsert(ctx context.Context, key widgets.Key, attrs widgets.Record) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.UpsertErr != nil {
		return i.UpsertErr
	}
	cur, ok := i.entries[key.String()]
	if !ok {
		cur = widgets.Record{}
	}
	maps.Copy(cur, attrs)
	i.entries[key.String()] = cur
	return nil
}

// Entry returns the indexed attributes at key, or nil.
func (i *Index) Entry(key widgets.Key) widgets.Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return maps.Clone(i.entries[key.String()])
}

var (
	_ records.Store      = (*Store)(nil)
	_ records.IndexStore = (*Index)(nil)
)
