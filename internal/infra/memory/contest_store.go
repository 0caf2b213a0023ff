package memory

import (
	"context"
	"sync"

	"mcq-contest-service/internal/domain"
)

// ContestStore is a map-backed app.ContestRepository (useful for tests/demos).
type ContestStore struct {
	mu       sync.RWMutex
	contests map[string]domain.Contest
	order    []string
}

func NewContestStore(seed ...domain.Contest) *ContestStore {
	s := &ContestStore{contests: make(map[string]domain.Contest)}
	for _, c := range seed {
		s.contests[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *ContestStore) Get(_ context.Context, contestID string) (domain.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.contests[contestID]; ok {
		return c, nil
	}
	return domain.Contest{}, domain.ErrContestNotFound
}

func (s *ContestStore) List(_ context.Context, activeOnly bool) ([]domain.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contest, 0, len(s.order))
	for _, id := range s.order {
		c := s.contests[id]
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *ContestStore) Create(_ context.Context, contest domain.Contest) error {
	if err := domain.ValidateContest(contest); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contest.ID]; !ok {
		s.order = append(s.order, contest.ID)
	}
	s.contests[contest.ID] = contest
	return nil
}

func (s *ContestStore) Update(_ context.Context, contest domain.Contest) error {
	if err := domain.ValidateContest(contest); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contest.ID]; !ok {
		return domain.ErrContestNotFound
	}
	s.contests[contest.ID] = contest
	return nil
}

func (s *ContestStore) Delete(_ context.Context, contestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contestID]; !ok {
		return domain.ErrContestNotFound
	}
	delete(s.contests, contestID)
	for i, id := range s.order {
		if id == contestID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
