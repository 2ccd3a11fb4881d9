// Package session tracks each client's Filter Selection. Sessions share the
// read-only Record Store; only the selection is per session.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/store"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Session is one client's view state.
type Session struct {
	ID        string           `json:"id"`
	Selection domain.Selection `json:"selection"`
	Screen    string           `json:"screen,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	LastSeen  time.Time        `json:"lastSeen"`
}

// Registry holds live sessions in memory.
type Registry struct {
	mu       sync.RWMutex
	store    *store.Store
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates a registry whose sessions start on st's full domains.
func NewRegistry(st *store.Store) *Registry {
	return &Registry{
		store:    st,
		sessions: make(map[string]*Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a session. A nil selection defaults to every Year and
// Statement Type in the store; an explicit selection, even an empty one,
// is kept as given.
func (r *Registry) Create(sel *domain.Selection, screen string) *Session {
	var initial domain.Selection
	if sel != nil {
		initial = *sel
	} else {
		initial = r.store.FullSelection()
	}

	now := r.now()
	s := &Session{
		ID:        uuid.New().String(),
		Selection: initial,
		Screen:    screen,
		CreatedAt: now,
		UpdatedAt: now,
		LastSeen:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s.clone()
}

// Get returns a copy of the session and marks it as seen.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.LastSeen = r.now()
	return s.clone(), nil
}

// Update replaces the session's selection and screen.
func (r *Registry) Update(id string, sel domain.Selection, screen string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Selection = sel
	s.Screen = screen
	s.UpdatedAt = r.now()
	s.LastSeen = s.UpdatedAt
	return s.clone(), nil
}

// Delete ends a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire removes sessions not read or updated within ttl and returns how many
// were removed.
func (r *Registry) Expire(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Session) clone() *Session {
	c := *s
	c.Selection = domain.Selection{
		Years:          append([]int(nil), s.Selection.Years...),
		StatementTypes: append([]string(nil), s.Selection.StatementTypes...),
	}
	return &c
}
