package auth

import (
	"sync"

	"docquery-ai/internal/models"
)

// Store holds the client-side view of the session identity. It is written
// once at bootstrap (session check) and on explicit login/logout; the api
// client and streamer never read it, since authentication travels in
// cookies, not in code.
type Store struct {
	mu sync.RWMutex

	user            *models.User
	isAuthenticated bool
	isAnonymous     bool
	isLoading       bool
}

func NewStore() *Store {
	return &Store{isLoading: true}
}

func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.isAuthenticated = user != nil
	s.isAnonymous = user == nil
	s.isLoading = false
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.isAuthenticated = false
	s.isAnonymous = true
	s.isLoading = false
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated
}

func (s *Store) IsAnonymous() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAnonymous
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}
