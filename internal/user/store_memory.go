package user

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps unit tests fast and dependency-free. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User // keyed by email
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, users: make(map[string]User)}
}

func (s *InMemoryStore) Create(_ context.Context, name, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return User{}, ErrEmailTaken
	}
	u := User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextID++
	s.users[email] = u
	return u, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
