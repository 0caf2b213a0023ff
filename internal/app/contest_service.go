package app

import (
	"context"
	"errors"

	"mcq-contest-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContestService handles contest authoring and the dashboard read models.
type ContestService struct {
	contests ContestRepository
	attempts AttemptRepository
	board    *LeaderboardService
	opts     options
}

func NewContestService(contests ContestRepository, attempts AttemptRepository, board *LeaderboardService, opts ...Option) *ContestService {
	return &ContestService{contests: contests, attempts: attempts, board: board, opts: buildOptions(opts)}
}

// StudentContest is one row of the student dashboard.
type StudentContest struct {
	Contest      domain.Contest       `json:"contest"`
	Status       domain.ContestStatus `json:"status"`
	MaxScore     int                  `json:"maxScore"`
	Attempted    bool                 `json:"attempted"`
	Completed    bool                 `json:"completed"`
	Score        *int                 `json:"score,omitempty"`
	Participants int                  `json:"participants"`
}

// StudentDashboard groups the contests a student may see.
type StudentDashboard struct {
	Ongoing  []StudentContest `json:"ongoing"`
	Upcoming []StudentContest `json:"upcoming"`
}

// AdminContest is one row of the admin dashboard.
type AdminContest struct {
	Contest      domain.Contest            `json:"contest"`
	Status       domain.ContestStatus      `json:"status"`
	MaxScore     int                       `json:"maxScore"`
	Participants int                       `json:"participants"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
}

// AdminDashboard lists every contest with aggregate counters.
type AdminDashboard struct {
	Contests []AdminContest `json:"contests"`
	Total    int            `json:"total"`
	Upcoming int            `json:"upcoming"`
	Ongoing  int            `json:"ongoing"`
}

// Create validates and stores a new contest owned by actor.
func (s *ContestService) Create(ctx context.Context, actor domain.Identity, contest domain.Contest) (domain.Contest, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Contest{}, err
	}
	if err := domain.ValidateContest(contest); err != nil {
		return domain.Contest{}, err
	}
	contest.ID = uuid.NewString()
	contest.CreatedBy = actor.ID
	contest.CreatedAt = s.opts.now()
	if err := s.contests.Create(ctx, contest); err != nil {
		return domain.Contest{}, err
	}
	s.opts.log.Info("contest created", zap.String("contest", contest.ID), zap.String("by", actor.ID))
	return contest, nil
}

// Update replaces the definition of an existing contest. Attempts that were
// already graded keep their score; open attempts are graded against the new
// definition when they submit.
func (s *ContestService) Update(ctx context.Context, actor domain.Identity, contestID string, contest domain.Contest) (domain.Contest, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Contest{}, err
	}
	current, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return domain.Contest{}, err
	}
	if err := domain.ValidateContest(contest); err != nil {
		return domain.Contest{}, err
	}
	contest.ID = current.ID
	contest.CreatedAt = current.CreatedAt
	contest.CreatedBy = actor.ID
	if err := s.contests.Update(ctx, contest); err != nil {
		return domain.Contest{}, err
	}
	s.opts.log.Info("contest updated", zap.String("contest", contestID), zap.String("by", actor.ID))
	return contest, nil
}

// Delete removes a contest and every attempt made against it.
func (s *ContestService) Delete(ctx context.Context, actor domain.Identity, contestID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.contests.Get(ctx, contestID); err != nil {
		return err
	}
	// Attempts go first so a failed contest delete never leaves them orphaned.
	if err := s.attempts.DeleteByContest(ctx, contestID); err != nil {
		return err
	}
	if err := s.contests.Delete(ctx, contestID); err != nil {
		return err
	}
	s.opts.log.Info("contest deleted", zap.String("contest", contestID), zap.String("by", actor.ID))
	return nil
}

// Get returns the full definition, correct answers included.
func (s *ContestService) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	return s.contests.Get(ctx, contestID)
}

// StudentDashboard lists active ongoing and upcoming contests along with the
// student's own progress on each.
func (s *ContestService) StudentDashboard(ctx context.Context, student domain.Identity) (StudentDashboard, error) {
	if student.Role != domain.RoleStudent {
		return StudentDashboard{}, domain.ErrForbidden
	}
	contests, err := s.contests.List(ctx, true)
	if err != nil {
		return StudentDashboard{}, err
	}

	now := s.opts.now()
	out := StudentDashboard{Ongoing: []StudentContest{}, Upcoming: []StudentContest{}}
	for _, c := range contests {
		if !c.VisibleToStudents(now) {
			continue
		}
		row := StudentContest{
			Contest:  c.PublicView(),
			Status:   c.Status(now),
			MaxScore: c.MaxScore(),
		}
		attempt, err := s.attempts.FindOne(ctx, c.ID, student.ID)
		switch {
		case err == nil:
			score := attempt.Score
			row.Attempted = true
			row.Completed = attempt.Completed
			row.Score = &score
		case !errors.Is(err, domain.ErrNotFound):
			return StudentDashboard{}, err
		}
		if row.Participants, err = s.attempts.CountByContest(ctx, c.ID); err != nil {
			return StudentDashboard{}, err
		}

		if row.Status == domain.StatusOngoing {
			out.Ongoing = append(out.Ongoing, row)
		} else {
			out.Upcoming = append(out.Upcoming, row)
		}
	}
	return out, nil
}

// AdminDashboard lists every contest with status, participation and ranking.
func (s *ContestService) AdminDashboard(ctx context.Context, admin domain.Identity) (AdminDashboard, error) {
	if err := requireAdmin(admin); err != nil {
		return AdminDashboard{}, err
	}
	contests, err := s.contests.List(ctx, false)
	if err != nil {
		return AdminDashboard{}, err
	}

	now := s.opts.now()
	out := AdminDashboard{Contests: make([]AdminContest, 0, len(contests))}
	for _, c := range contests {
		lb, err := s.board.BuildLeaderboard(ctx, c.ID)
		if err != nil {
			return AdminDashboard{}, err
		}
		row := AdminContest{
			Contest:      c,
			Status:       c.Status(now),
			MaxScore:     c.MaxScore(),
			Participants: lb.Participants,
			Leaderboard:  lb.Entries,
		}
		switch row.Status {
		case domain.StatusUpcoming:
			out.Upcoming++
		case domain.StatusOngoing:
			out.Ongoing++
		}
		out.Contests = append(out.Contests, row)
	}
	out.Total = len(out.Contests)
	return out, nil
}

func requireAdmin(actor domain.Identity) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
