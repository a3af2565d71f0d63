package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for chain store operations.
var (
	// ErrDuplicateChain indicates Create was called with an id that is
	// already live.
	ErrDuplicateChain = errors.New("chain id already exists")

	// ErrUnknownChain indicates a mutation was attempted on an id that
	// does not exist.
	ErrUnknownChain = errors.New("chain not found")
)

// Stage is one step of a handler pipeline. It receives the triggering
// event and the data produced by the previous stage (nil for the first
// stage), and returns the data for the next stage along with a continue
// flag. Returning cont == false stops the pipeline for this trigger
// without error. Returning an error aborts the pipeline for this trigger;
// later triggers run the full pipeline again.
//
// A stage may block; the engine runs stages strictly in sequence, so a
// later stage never starts before an earlier one returns.
type Stage[E any] func(ctx context.Context, evt E, data any) (next any, cont bool, err error)

// Store holds stage lists keyed by chain id. Ids are unique while live:
// Create fails on a duplicate, Remove frees the id for reuse.
//
// Store is an explicit value owned by one engine instance, never a
// module-level global, so several engines in one process cannot collide
// on chain ids.
type Store[E any] struct {
	mu     sync.RWMutex
	chains map[string][]Stage[E]
}

// NewStore creates an empty chain store.
func NewStore[E any]() *Store[E] {
	return &Store[E]{
		chains: make(map[string][]Stage[E]),
	}
}

// Create registers a new chain with the given ordered stages.
// Returns ErrDuplicateChain if the id is already live.
func (s *Store[E]) Create(id string, stages []Stage[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chains[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChain, id)
	}

	list := make([]Stage[E], len(stages))
	copy(list, stages)
	s.chains[id] = list
	return nil
}

// Append adds a stage to the end of the chain.
// Returns ErrUnknownChain if the id does not exist.
func (s *Store[E]) Append(id string, stage Stage[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.chains[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	s.chains[id] = append(list, stage)
	return nil
}

// Insert adds a stage at the given position, shifting later stages back.
// Positions outside [0, len] are clamped. Returns ErrUnknownChain if the
// id does not exist.
func (s *Store[E]) Insert(id string, position int, stage Stage[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.chains[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}

	if position < 0 {
		position = 0
	}
	if position > len(list) {
		position = len(list)
	}

	list = append(list, nil)
	copy(list[position+1:], list[position:])
	list[position] = stage
	s.chains[id] = list
	return nil
}

// Stages returns a copy of the chain's stage list and whether the id
// exists. The copy is the per-trigger snapshot executions run against.
func (s *Store[E]) Stages(id string) ([]Stage[E], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, exists := s.chains[id]
	if !exists {
		return nil, false
	}
	out := make([]Stage[E], len(list))
	copy(out, list)
	return out, true
}

// StageCount returns the number of stages in the chain and whether the
// id exists.
func (s *Store[E]) StageCount(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, exists := s.chains[id]
	return len(list), exists
}

// Has returns true if the id is live.
func (s *Store[E]) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.chains[id]
	return exists
}

// Remove deletes the chain and returns whether it existed.
// Removing an absent id is a no-op.
func (s *Store[E]) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.chains[id]
	delete(s.chains, id)
	return exists
}

// Len returns the number of live chains.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chains)
}

// IDs returns the ids of all live chains. The order is not guaranteed.
func (s *Store[E]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chains))
	for id := range s.chains {
		ids = append(ids, id)
	}
	return ids
}

// Clear drops every chain. Used by engine-wide cleanup.
func (s *Store[E]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains = make(map[string][]Stage[E])
}
