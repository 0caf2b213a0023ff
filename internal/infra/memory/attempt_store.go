package memory

import (
	"context"
	"sync"

	"mcq-contest-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository. A
// single mutex makes create-if-absent and complete-if-open atomic.
type AttemptStore struct {
	mu        sync.RWMutex
	attempts  map[string]*domain.Attempt
	byPair    map[pairKey]string
	byContest map[string][]string
}

type pairKey struct {
	contestID string
	studentID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts:  make(map[string]*domain.Attempt),
		byPair:    make(map[pairKey]string),
		byContest: make(map[string][]string),
	}
}

func (s *AttemptStore) FindOne(_ context.Context, contestID, studentID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{contestID, studentID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(*s.attempts[id]), nil
}

func (s *AttemptStore) InsertIfAbsent(_ context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{attempt.ContestID, attempt.StudentID}
	if id, ok := s.byPair[key]; ok {
		return cloneAttempt(*s.attempts[id]), false, nil
	}
	stored := cloneAttempt(attempt)
	s.attempts[attempt.ID] = &stored
	s.byPair[key] = attempt.ID
	s.byContest[attempt.ContestID] = append(s.byContest[attempt.ContestID], attempt.ID)
	return cloneAttempt(stored), true, nil
}

func (s *AttemptStore) CompleteIfOpen(_ context.Context, attemptID string, c domain.Completion) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if current.Completed {
		return cloneAttempt(*current), domain.ErrAlreadySubmitted
	}
	updated := cloneAttempt(c.Apply(*current))
	*current = updated
	return cloneAttempt(updated), nil
}

func (s *AttemptStore) ListByContest(_ context.Context, contestID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byContest[contestID]
	out := make([]domain.Attempt, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneAttempt(*s.attempts[id]))
	}
	return out, nil
}

func (s *AttemptStore) CountByContest(_ context.Context, contestID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byContest[contestID]), nil
}

func (s *AttemptStore) DeleteByContest(_ context.Context, contestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byContest[contestID] {
		a := s.attempts[id]
		delete(s.byPair, pairKey{a.ContestID, a.StudentID})
		delete(s.attempts, id)
	}
	delete(s.byContest, contestID)
	return nil
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	answers := make(map[string]domain.Answer, len(a.Answers))
	for k, v := range a.Answers {
		if v.Multi {
			v.Choices = append([]string{}, v.Choices...)
		}
		answers[k] = v
	}
	a.Answers = answers
	return a
}
