package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"
)

func TestContestCacheCaches(t *testing.T) {
	backing := &countingStore{ContestRepository: NewContestStore(sampleContest())}
	repo := NewContestCache(backing, time.Minute)

	if _, err := repo.Get(context.Background(), "contest-1"); err != nil {
		t.Fatalf("get contest: %v", err)
	}
	if backing.gets != 1 {
		t.Fatalf("expected backing store once, got %d", backing.gets)
	}

	if _, err := repo.Get(context.Background(), "contest-1"); err != nil {
		t.Fatalf("get contest 2: %v", err)
	}
	if backing.gets != 1 {
		t.Fatalf("expected cache hit, backing gets %d", backing.gets)
	}
}

func TestContestCacheEvictsOnUpdate(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{ContestRepository: NewContestStore(sampleContest())}
	repo := NewContestCache(backing, time.Minute)

	if _, err := repo.Get(ctx, "contest-1"); err != nil {
		t.Fatalf("get contest: %v", err)
	}

	edited := sampleContest()
	edited.Questions[0].Answer = "3"
	if err := repo.Update(ctx, edited); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, "contest-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Questions[0].Answer != "3" {
		t.Fatalf("expected edited definition after update, got %q", got.Questions[0].Answer)
	}
	if backing.gets != 2 {
		t.Fatalf("expected reload after eviction, backing gets %d", backing.gets)
	}
}

func TestContestCacheExpires(t *testing.T) {
	backing := &countingStore{ContestRepository: NewContestStore(sampleContest())}
	repo := NewContestCache(backing, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.Get(context.Background(), "contest-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.Get(context.Background(), "contest-1")
	if backing.gets != 2 {
		t.Fatalf("expected reload after ttl, backing gets %d", backing.gets)
	}
}

func TestContestCacheDoesNotCacheMisses(t *testing.T) {
	repo := NewContestCache(NewContestStore(), time.Minute)
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestContestCacheDropsLoadRacingUpdate(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore(NewContestStore(sampleContest()))
	repo := NewContestCache(backing, time.Minute)

	done := make(chan domain.Contest)
	go func() {
		c, _ := repo.Get(ctx, "contest-1")
		done <- c
	}()
	<-backing.read

	edited := sampleContest()
	edited.Questions[0].Answer = "3"
	if err := repo.Update(ctx, edited); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(backing.release)
	if stale := <-done; stale.Questions[0].Answer != "4" {
		t.Fatalf("in-flight load should see the old definition, got %q", stale.Questions[0].Answer)
	}

	got, err := repo.Get(ctx, "contest-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Questions[0].Answer != "3" {
		t.Fatalf("stale definition cached after update: %q", got.Questions[0].Answer)
	}
}

func TestContestCacheDropsLoadRacingDelete(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore(NewContestStore(sampleContest()))
	repo := NewContestCache(backing, time.Minute)

	done := make(chan struct{})
	go func() {
		_, _ = repo.Get(ctx, "contest-1")
		close(done)
	}()
	<-backing.read

	if err := repo.Delete(ctx, "contest-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(backing.release)
	<-done

	if _, err := repo.Get(ctx, "contest-1"); !errors.Is(err, domain.ErrContestNotFound) {
		t.Fatalf("expected deleted contest gone, got %v", err)
	}
}

// gatedStore holds its first Get after reading until release is closed.
type gatedStore struct {
	app.ContestRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(backing app.ContestRepository) *gatedStore {
	return &gatedStore{
		ContestRepository: backing,
		read:              make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (s *gatedStore) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	c, err := s.ContestRepository.Get(ctx, contestID)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.read)
		<-s.release
	}
	return c, err
}

type countingStore struct {
	app.ContestRepository
	gets int
}

func (s *countingStore) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	s.gets++
	return s.ContestRepository.Get(ctx, contestID)
}

func sampleContest() domain.Contest {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Contest{
		ID:              "contest-1",
		Name:            "Arithmetic",
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
		DurationMinutes: 30,
		Active:          true,
		Questions: []domain.Question{
			{
				Type:    domain.SingleChoice,
				Prompt:  "What is 2 + 2?",
				Choices: []string{"3", "4", "5"},
				Answer:  "4",
				Points:  1,
			},
		},
	}
}
