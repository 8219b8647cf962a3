package user

import (
	"context"
	"sync"
)

// StubUserRepo is an in-memory Repo for tests.
type StubUserRepo struct {
	mu         sync.Mutex
	nextID     uint32
	users      map[uint32]User
	identities map[string]Identity
}

func NewStubUserRepo() *StubUserRepo {
	return &StubUserRepo{
		users:      map[uint32]User{},
		identities: map[string]Identity{},
	}
}

func (s *StubUserRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = 0
	s.users = map[uint32]User{}
	s.identities = map[string]Identity{}
}

func (s *StubUserRepo) CreateUser(_ context.Context, username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := User{ID: s.nextID, Username: username}
	s.users[u.ID] = u
	return u, nil
}

func (s *StubUserRepo) GetUser(_ context.Context, id uint32) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *StubUserRepo) UpdateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	s.users[u.ID] = u
	return nil
}

func (s *StubUserRepo) DeleteUser(_ context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *StubUserRepo) GetAllUsers(_ context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *StubUserRepo) GetIdentity(_ context.Context, identity string) (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.identities[identity]
	return ident, ok, nil
}

func (s *StubUserRepo) InsertIdentity(_ context.Context, ident Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[ident.Identity] = ident
	return nil
}

func (s *StubUserRepo) UpdateIdentity(_ context.Context, ident Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[ident.Identity] = ident
	return nil
}

func (s *StubUserRepo) GetIdentitiesByUser(_ context.Context, userID uint32) ([]Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var idents []Identity
	for _, ident := range s.identities {
		if ident.UserID == userID {
			idents = append(idents, ident)
		}
	}
	return idents, nil
}

func (s *StubUserRepo) GetAllIdentities(_ context.Context) ([]Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idents := make([]Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		idents = append(idents, ident)
	}
	return idents, nil
}

func (s *StubUserRepo) CountOnlineIdentities(_ context.Context, userID uint32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ident := range s.identities {
		if ident.Online && ident.UserID == userID {
			count++
		}
	}
	return count, nil
}
