package app

import (
	"context"

	"mcq-contest-service/internal/domain"
)

// ContestRepository stores contest definitions (in-memory, Postgres, cached, etc).
type ContestRepository interface {
	Get(ctx context.Context, contestID string) (domain.Contest, error)
	// List returns contests in creation order; activeOnly filters out inactive ones.
	List(ctx context.Context, activeOnly bool) ([]domain.Contest, error)
	Create(ctx context.Context, contest domain.Contest) error
	Update(ctx context.Context, contest domain.Contest) error
	// Delete removes the contest. Attempt cleanup is driven by ContestService.
	Delete(ctx context.Context, contestID string) error
}

// AttemptRepository stores attempts. InsertIfAbsent and CompleteIfOpen must be
// atomic with respect to concurrent callers on the same (contest, student) pair.
type AttemptRepository interface {
	FindOne(ctx context.Context, contestID, studentID string) (domain.Attempt, error)
	// InsertIfAbsent stores attempt unless the pair already has one, in which
	// case the existing attempt is returned with created=false.
	InsertIfAbsent(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error)
	// CompleteIfOpen applies c only while the attempt is not completed. It
	// returns domain.ErrAlreadySubmitted when another writer got there first.
	CompleteIfOpen(ctx context.Context, attemptID string, c domain.Completion) (domain.Attempt, error)
	// ListByContest returns attempts in insertion order.
	ListByContest(ctx context.Context, contestID string) ([]domain.Attempt, error)
	CountByContest(ctx context.Context, contestID string) (int, error)
	DeleteByContest(ctx context.Context, contestID string) error
}

// UserDirectory resolves student ids to display names.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (domain.Identity, error)
	Upsert(ctx context.Context, identity domain.Identity) error
}

// CompletionNotifier is told whenever an attempt of a contest completes.
type CompletionNotifier interface {
	AttemptCompleted(ctx context.Context, contestID string)
}
