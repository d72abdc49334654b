// internal/game/game_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// Store keeps the live matches of this server by id.
type Store struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewStore() *Store {
	return &Store{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *Store) Add(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *Store) Get(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.matches[id]
	return m, exists
}

// Delete stops the match's timers and forgets it.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	m, ok := s.matches[id]
	delete(s.matches, id)
	s.mu.Unlock()
	if ok {
		m.Stop()
	}
}

// List returns every live match in no particular order.
func (s *Store) List() []*Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	return out
}

// ForPlayer returns the first unfinished match playerID is seated in.
func (s *Store) ForPlayer(playerID string) (*Match, bool) {
	for _, m := range s.List() {
		if m.IsParticipant(playerID) && !m.State().IsOver() {
			return m, true
		}
	}
	return nil, false
}
