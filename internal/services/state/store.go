// Package state holds the engine's persistent state: the active routing logic
// version, the fee configuration and the admin. Routing logic only ever reads
// it through Snapshot, so swapping the logic never touches its layout.
package state

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hxuan190/split-swapper/internal/domain"
)

// Persister stores the encoded engine state.
type Persister interface {
	SaveState(st *domain.EngineState) error
}

type Store struct {
	current   atomic.Pointer[domain.EngineState]
	writeMu   sync.Mutex
	persister Persister
}

// NewStore seeds the store with initial. persister may be nil.
func NewStore(initial domain.EngineState, persister Persister) (*Store, error) {
	if !initial.Version.Valid() {
		return nil, fmt.Errorf("%w: version %d", domain.ErrUnsupportedVersion, initial.Version)
	}
	if err := initial.Fee.Validate(); err != nil {
		return nil, err
	}
	s := &Store{persister: persister}
	s.current.Store(&initial)
	return s, nil
}

// Snapshot returns a consistent copy of the state. Sessions read it once and
// reuse it for every leg.
func (s *Store) Snapshot() domain.EngineState {
	return *s.current.Load()
}

// Mutate applies fn to a copy of the state, persists the result and only then
// publishes it. Writers are serialised; readers are never blocked.
func (s *Store) Mutate(fn func(st *domain.EngineState) error) (domain.EngineState, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.current.Load()
	if err := fn(&next); err != nil {
		return domain.EngineState{}, err
	}
	if s.persister != nil {
		if err := s.persister.SaveState(&next); err != nil {
			return domain.EngineState{}, fmt.Errorf("persist engine state: %w", err)
		}
	}
	s.current.Store(&next)
	return next, nil
}
