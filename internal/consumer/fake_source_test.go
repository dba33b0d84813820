package consumer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/imrishuroy/widget-consumer/internal/source"
)

// memSource behaves like a bucket: Poll lists every entry still present.
type memSource struct {
	mu      sync.Mutex
	entries map[string][]byte

	polls     int
	pollErrs  map[int]error // poll number (1-based) -> error
	ackErr    error
	acked     []string
	fetched   []string
	onPoll    func(n int)
	vanishing map[string]bool // listed but gone on fetch
}

func newMemSource(entries map[string]string) *memSource {
	s := &memSource{entries: map[string][]byte{}, pollErrs: map[int]error{}, vanishing: map[string]bool{}}
	for k, v := range entries {
		s.entries[k] = []byte(v)
	}
	return s
}

func (s *memSource) Name() string { return "mem" }

func (s *memSource) Poll(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.onPoll != nil {
		s.onPoll(s.polls)
	}
	if err := s.pollErrs[s.polls]; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.entries))
	for k := range s.entries {
		ids = append(ids, k)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *memSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, id)
	body, ok := s.entries[id]
	if !ok || s.vanishing[id] {
		return nil, fmt.Errorf("fetch %s: %w", id, source.ErrNotFound)
	}
	return body, nil
}

func (s *memSource) Ack(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ackErr != nil {
		return s.ackErr
	}
	s.acked = append(s.acked, id)
	delete(s.entries, id)
	return nil
}

func (s *memSource) add(id, body string) {
	s.entries[id] = []byte(body)
}
