package app

import (
	"context"
	"errors"
	"sort"

	"mcq-contest-service/internal/domain"
)

// UnknownStudent is shown for attempts whose student no longer resolves.
const UnknownStudent = "Unknown"

// LeaderboardService derives rankings from attempt records. Nothing it
// produces is stored.
type LeaderboardService struct {
	contests ContestRepository
	attempts AttemptRepository
	users    UserDirectory
	opts     options
}

func NewLeaderboardService(contests ContestRepository, attempts AttemptRepository, users UserDirectory, opts ...Option) *LeaderboardService {
	return &LeaderboardService{contests: contests, attempts: attempts, users: users, opts: buildOptions(opts)}
}

// BuildLeaderboard ranks every attempt of the contest, in-progress ones
// included, by score descending. Equal scores keep attempt insertion order.
func (s *LeaderboardService) BuildLeaderboard(ctx context.Context, contestID string) (domain.Leaderboard, error) {
	if _, err := s.contests.Get(ctx, contestID); err != nil {
		return domain.Leaderboard{}, err
	}
	attempts, err := s.attempts.ListByContest(ctx, contestID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(attempts))
	for _, a := range attempts {
		name, err := s.displayName(ctx, a.StudentID)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		entries = append(entries, domain.LeaderboardEntry{
			StudentID:   a.StudentID,
			DisplayName: name,
			Score:       a.Score,
			Completed:   a.Completed,
		})
	}
	RankEntries(entries)

	return domain.Leaderboard{
		ContestID:    contestID,
		Entries:      entries,
		Participants: len(attempts),
		UpdatedAt:    s.opts.now(),
	}, nil
}

// ParticipantCount is the number of attempt records of the contest.
func (s *LeaderboardService) ParticipantCount(ctx context.Context, contestID string) (int, error) {
	return s.attempts.CountByContest(ctx, contestID)
}

// RankEntries sorts by score descending without reordering ties.
func RankEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

func (s *LeaderboardService) displayName(ctx context.Context, studentID string) (string, error) {
	user, err := s.users.Lookup(ctx, studentID)
	switch {
	case err == nil && user.DisplayName != "":
		return user.DisplayName, nil
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return UnknownStudent, nil
	default:
		return "", err
	}
}
