package cache

import (
	"context"
	"sort"
	"sync"
)

// InMemoryCheckpointStore implements CheckpointStore with a mutex-guarded
// map. Suitable for single-instance deployments and tests; state does not
// survive a restart.
type InMemoryCheckpointStore struct {
	mu        sync.RWMutex
	entities  map[string]EntityCheckpoint
	lastCycle *CycleSummary
}

// NewInMemoryCheckpointStore creates an empty in-memory store
func NewInMemoryCheckpointStore() *InMemoryCheckpointStore {
	return &InMemoryCheckpointStore{
		entities: make(map[string]EntityCheckpoint),
	}
}

// SaveEntityCheckpoint records a successful sync of one entity type
func (s *InMemoryCheckpointStore) SaveEntityCheckpoint(_ context.Context, cp EntityCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[cp.Entity] = cp
	return nil
}

// EntityCheckpoints returns the last checkpoint of every entity type,
// sorted by entity name for stable output
func (s *InMemoryCheckpointStore) EntityCheckpoints(_ context.Context) ([]EntityCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := make([]EntityCheckpoint, 0, len(s.entities))
	for _, cp := range s.entities {
		checkpoints = append(checkpoints, cp)
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Entity < checkpoints[j].Entity
	})
	return checkpoints, nil
}

// SaveCycleSummary records the outcome of a completed cycle
func (s *InMemoryCheckpointStore) SaveCycleSummary(_ context.Context, summary CycleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycle = &summary
	return nil
}

// LastCycleSummary returns the most recent cycle summary, or nil if none
func (s *InMemoryCheckpointStore) LastCycleSummary(_ context.Context) (*CycleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastCycle == nil {
		return nil, nil
	}
	summary := *s.lastCycle
	return &summary, nil
}

var _ CheckpointStore = (*InMemoryCheckpointStore)(nil)
