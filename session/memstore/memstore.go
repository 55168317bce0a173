// Package memstore keeps session state in memory only
package memstore

import (
	"sync"

	"github.com/jrsteele09/campus-auth/session"
)

type Store struct {
	mu    sync.RWMutex
	state session.State
}

var _ session.Store = (*Store)(nil)

// New returns a store that starts out holding initial
func New(initial session.State) *Store {
	return &Store{state: initial}
}

func (s *Store) Load() (session.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *Store) Save(state session.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = session.State{}
	return nil
}
