package label

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu     sync.Mutex
	nextID uint32
	labels map[uint32]Label
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{labels: map[uint32]Label{}}
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = 0
	s.labels = map[uint32]Label{}
}

func (s *RepositoryStub) Create(_ context.Context, l Label) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l.ID = s.nextID
	s.labels[l.ID] = l
	return l, nil
}

func (s *RepositoryStub) Get(_ context.Context, id uint32) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labels[id]
	if !ok {
		return Label{}, ErrLabelNotFound
	}
	return l, nil
}

func (s *RepositoryStub) Delete(_ context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.labels, id)
	return nil
}

func (s *RepositoryStub) GetByCreator(_ context.Context, creatorUserID uint32) ([]Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var labels []Label
	for _, l := range s.labels {
		if l.CreatorUserID == creatorUserID {
			labels = append(labels, l)
		}
	}
	return labels, nil
}

func (s *RepositoryStub) GetAll(_ context.Context) ([]Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]Label, 0, len(s.labels))
	for _, l := range s.labels {
		labels = append(labels, l)
	}
	return labels, nil
}
