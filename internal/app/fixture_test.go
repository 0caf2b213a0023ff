package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"
	"mcq-contest-service/internal/infra/memory"

	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	c.now = at
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	contests []string
}

func (n *recordingNotifier) AttemptCompleted(_ context.Context, contestID string) {
	n.mu.Lock()
	n.contests = append(n.contests, contestID)
	n.mu.Unlock()
}

func (n *recordingNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.contests)
}

// tenPointContest runs from t0 to t0+60m with a 30 minute budget.
func tenPointContest() domain.Contest {
	return domain.Contest{
		ID:              "contest-1",
		Name:            "Mixed bag",
		StartsAt:        t0,
		EndsAt:          t0.Add(60 * time.Minute),
		DurationMinutes: 30,
		Active:          true,
		Questions: []domain.Question{
			{Type: domain.SingleChoice, Prompt: "2 + 2", Choices: []string{"3", "4"}, Answer: "4", Points: 3},
			{Type: domain.MultiChoice, Prompt: "vowels", Choices: []string{"A", "B", "C", "E"}, Answers: []string{"A", "E"}, Points: 4},
			{Type: domain.FreeText, Prompt: "capital of France", Answer: "Paris", Points: 3},
		},
	}
}

type fixture struct {
	clock    *fakeClock
	contests *memory.ContestStore
	attempts *memory.AttemptStore
	users    *memory.UserDirectory
	notifier *recordingNotifier
	service  *app.AttemptService
	board    *app.LeaderboardService
}

func newFixture(t *testing.T, contests ...domain.Contest) *fixture {
	f := &fixture{
		clock:    newClock(t0),
		contests: memory.NewContestStore(contests...),
		attempts: memory.NewAttemptStore(),
		users:    memory.NewUserDirectory(),
		notifier: &recordingNotifier{},
	}
	f.service = app.NewAttemptService(f.contests, f.attempts,
		app.WithClock(f.clock.Now),
		app.WithNotifier(f.notifier),
		app.WithLogger(zaptest.NewLogger(t)),
	)
	f.board = app.NewLeaderboardService(f.contests, f.attempts, f.users, app.WithClock(f.clock.Now))
	return f
}

func (f *fixture) at(minutes int) {
	f.clock.Set(t0.Add(time.Duration(minutes) * time.Minute))
}
