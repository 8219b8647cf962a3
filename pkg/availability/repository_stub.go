package availability

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu     sync.Mutex
	nextID uint32
	ranges map[uint32]Range
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{ranges: map[uint32]Range{}}
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = 0
	s.ranges = map[uint32]Range{}
}

func (s *RepositoryStub) Create(_ context.Context, r Range) (Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.ranges[r.ID] = r
	return r, nil
}

func (s *RepositoryStub) Get(_ context.Context, id uint32) (Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ranges[id]
	if !ok {
		return Range{}, ErrRangeNotFound
	}
	return r, nil
}

func (s *RepositoryStub) Update(_ context.Context, r Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ranges[r.ID]; !ok {
		return ErrRangeNotFound
	}
	s.ranges[r.ID] = r
	return nil
}

func (s *RepositoryStub) Delete(_ context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ranges, id)
	return nil
}

func (s *RepositoryStub) GetByCreator(_ context.Context, creatorUserID uint32) ([]Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ranges []Range
	for _, r := range s.ranges {
		if r.CreatorUserID == creatorUserID {
			ranges = append(ranges, r)
		}
	}
	return ranges, nil
}

func (s *RepositoryStub) GetAll(_ context.Context) ([]Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ranges := make([]Range, 0, len(s.ranges))
	for _, r := range s.ranges {
		ranges = append(ranges, r)
	}
	return ranges, nil
}
