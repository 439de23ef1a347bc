package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/site-cluster-map/internal/icon"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started after it.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Store holds the layer currently served. Loads take a generation number when
// they start; only the most recently started load may publish its result.
type Store struct {
	mu      sync.Mutex
	latest  uint64
	current atomic.Pointer[icon.Layer]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the served layer, or nil before the first successful load.
func (s *Store) Current() *icon.Layer {
	return s.current.Load()
}

// CheckReadiness returns nil once a dataset has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("no dataset loaded yet")
	}
	return nil
}

// begin starts a new load and returns its generation.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// commit publishes layer if gen is still the newest load.
func (s *Store) commit(gen uint64, layer *icon.Layer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.latest {
		return false
	}
	s.current.Store(layer)
	return true
}
