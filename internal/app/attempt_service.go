package app

import (
	"context"
	"errors"
	"time"

	"mcq-contest-service/internal/domain"
	"mcq-contest-service/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttemptService owns every transition of an attempt record. It is the only
// writer of attempts; handlers never touch the repository directly.
type AttemptService struct {
	contests ContestRepository
	attempts AttemptRepository
	opts     options
}

func NewAttemptService(contests ContestRepository, attempts AttemptRepository, opts ...Option) *AttemptService {
	return &AttemptService{contests: contests, attempts: attempts, opts: buildOptions(opts)}
}

// Resolve returns the student's attempt, creating it on first access while the
// contest is open. Repeated calls return the same in-progress attempt.
func (s *AttemptService) Resolve(ctx context.Context, contestID, studentID string) (domain.Attempt, domain.Contest, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return domain.Attempt{}, domain.Contest{}, err
	}
	now := s.opts.now()

	existing, err := s.attempts.FindOne(ctx, contestID, studentID)
	switch {
	case err == nil:
		if existing.Completed {
			return existing, contest, domain.ErrAlreadySubmitted
		}
		existing, err = s.checkExpiry(ctx, existing, contest, now)
		if err != nil {
			return existing, contest, err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Attempt{}, contest, err
	}

	if !contest.AcceptsAttempts(now) {
		return existing, contest, domain.ErrContestNotOpen
	}
	if existing.ID != "" {
		return existing, contest, nil
	}

	stored, created, err := s.attempts.InsertIfAbsent(ctx, domain.Attempt{
		ID:        uuid.NewString(),
		ContestID: contestID,
		StudentID: studentID,
		StartedAt: now,
		Answers:   map[string]domain.Answer{},
	})
	if err != nil {
		return domain.Attempt{}, contest, err
	}
	if !created {
		// Lost a concurrent first resolve; the winner's record is authoritative.
		if stored.Completed {
			return stored, contest, domain.ErrAlreadySubmitted
		}
		return stored, contest, nil
	}

	metrics.AttemptsStarted.Inc()
	s.opts.log.Info("attempt started",
		zap.String("contest", contestID),
		zap.String("student", studentID),
		zap.String("attempt", stored.ID),
	)
	return stored, contest, nil
}

// CheckExpiry completes attempt with its recorded score once the time budget
// is spent and reports domain.ErrExpired. Completed attempts are returned as is.
func (s *AttemptService) CheckExpiry(ctx context.Context, attempt domain.Attempt, contest domain.Contest) (domain.Attempt, error) {
	return s.checkExpiry(ctx, attempt, contest, s.opts.now())
}

// Check loads the student's attempt and applies CheckExpiry to it.
func (s *AttemptService) Check(ctx context.Context, contestID, studentID string) (domain.Attempt, domain.Contest, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return domain.Attempt{}, domain.Contest{}, err
	}
	attempt, err := s.attempts.FindOne(ctx, contestID, studentID)
	if err != nil {
		return domain.Attempt{}, contest, err
	}
	attempt, err = s.CheckExpiry(ctx, attempt, contest)
	return attempt, contest, err
}

// Submit grades raw against the current contest definition and completes the
// attempt. Expiry is checked first and wins over every other outcome.
func (s *AttemptService) Submit(ctx context.Context, contestID, studentID string, raw map[string]domain.Answer) (domain.Attempt, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return domain.Attempt{}, err
	}
	attempt, err := s.attempts.FindOne(ctx, contestID, studentID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Completed {
		return attempt, closedError(attempt)
	}

	now := s.opts.now()
	attempt, err = s.checkExpiry(ctx, attempt, contest, now)
	if err != nil {
		return attempt, err
	}
	if !contest.AcceptsAttempts(now) {
		return attempt, domain.ErrContestNotOpen
	}

	answers, total := GradeAll(contest, raw)
	done, err := s.attempts.CompleteIfOpen(ctx, attempt.ID, domain.Completion{
		Answers:     answers,
		Score:       total,
		CompletedAt: now,
	})
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		return s.reload(ctx, attempt)
	}
	if err != nil {
		return attempt, err
	}

	metrics.AttemptsCompleted.WithLabelValues(metrics.OutcomeSubmitted).Inc()
	metrics.SubmissionScore.Observe(float64(total))
	s.opts.log.Info("attempt submitted",
		zap.String("contest", contestID),
		zap.String("student", studentID),
		zap.Int("score", total),
		zap.Int("max_score", contest.MaxScore()),
	)
	s.notify(ctx, contestID)
	return done, nil
}

func (s *AttemptService) checkExpiry(ctx context.Context, attempt domain.Attempt, contest domain.Contest, now time.Time) (domain.Attempt, error) {
	if attempt.Completed || !attempt.HasExpired(contest, now) {
		return attempt, nil
	}

	done, err := s.attempts.CompleteIfOpen(ctx, attempt.ID, domain.Completion{
		Score:       attempt.Score,
		Expired:     true,
		CompletedAt: now,
	})
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		return s.reload(ctx, attempt)
	}
	if err != nil {
		return attempt, err
	}

	metrics.AttemptsCompleted.WithLabelValues(metrics.OutcomeExpired).Inc()
	s.opts.log.Info("attempt expired",
		zap.String("contest", attempt.ContestID),
		zap.String("student", attempt.StudentID),
		zap.Duration("elapsed", now.Sub(attempt.StartedAt)),
		zap.Int("score", done.Score),
	)
	s.notify(ctx, attempt.ContestID)
	return done, domain.ErrExpired
}

// reload re-reads an attempt whose conditional completion lost a race and
// reports how the winner closed it.
func (s *AttemptService) reload(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	fresh, err := s.attempts.FindOne(ctx, attempt.ContestID, attempt.StudentID)
	if err != nil {
		return attempt, err
	}
	return fresh, closedError(fresh)
}

func closedError(attempt domain.Attempt) error {
	if attempt.Expired {
		return domain.ErrExpired
	}
	return domain.ErrAlreadySubmitted
}

func (s *AttemptService) notify(ctx context.Context, contestID string) {
	if s.opts.notifier != nil {
		s.opts.notifier.AttemptCompleted(ctx, contestID)
	}
}
