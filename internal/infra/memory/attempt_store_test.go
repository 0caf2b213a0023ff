package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mcq-contest-service/internal/domain"
)

func newAttempt(id, contestID, studentID string) domain.Attempt {
	return domain.Attempt{
		ID:        id,
		ContestID: contestID,
		StudentID: studentID,
		StartedAt: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
		Answers:   map[string]domain.Answer{},
	}
}

func TestAttemptStoreInsertIfAbsentIsExclusive(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]struct{}{}
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, ok, err := store.InsertIfAbsent(ctx, newAttempt(fmt.Sprintf("a-%d", i), "c1", "s1"))
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[a.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	if created != 1 || len(ids) != 1 {
		t.Fatalf("expected exactly one attempt, created=%d distinct=%d", created, len(ids))
	}
	if n, _ := store.CountByContest(ctx, "c1"); n != 1 {
		t.Fatalf("expected one stored attempt, got %d", n)
	}
}

func TestAttemptStoreCompleteIfOpenOnce(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	if _, _, err := store.InsertIfAbsent(ctx, newAttempt("a1", "c1", "s1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, err := store.CompleteIfOpen(ctx, "a1", domain.Completion{Score: score})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case !errors.Is(err, domain.ErrAlreadySubmitted):
				t.Errorf("unexpected error: %v", err)
			}
		}(i + 1)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected one winning completion, got %d", winners)
	}
	got, err := store.FindOne(ctx, "c1", "s1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Completed || got.Score == 0 {
		t.Fatalf("expected completed attempt with score, got %+v", got)
	}
}

func TestAttemptStoreExpiryKeepsAnswers(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	a := newAttempt("a1", "c1", "s1")
	a.Answers["q"] = domain.TextAnswer("draft")
	a.Score = 2
	_, _, _ = store.InsertIfAbsent(ctx, a)

	done, err := store.CompleteIfOpen(ctx, "a1", domain.Completion{Score: 2, Expired: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Expired || done.Score != 2 || done.Answers["q"].Text != "draft" {
		t.Fatalf("expected frozen attempt with answers kept, got %+v", done)
	}
}

func TestAttemptStoreListOrderAndCascade(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	for _, s := range []string{"s3", "s1", "s2"} {
		_, _, _ = store.InsertIfAbsent(ctx, newAttempt("a-"+s, "c1", s))
	}
	_, _, _ = store.InsertIfAbsent(ctx, newAttempt("other", "c2", "s1"))

	list, _ := store.ListByContest(ctx, "c1")
	if len(list) != 3 || list[0].StudentID != "s3" || list[2].StudentID != "s2" {
		t.Fatalf("expected insertion order, got %+v", list)
	}

	if err := store.DeleteByContest(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.FindOne(ctx, "c1", "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected attempts removed, got %v", err)
	}
	if n, _ := store.CountByContest(ctx, "c2"); n != 1 {
		t.Fatalf("expected other contest untouched, got %d", n)
	}
}

func TestAttemptStoreReturnsCopies(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	_, _, _ = store.InsertIfAbsent(ctx, newAttempt("a1", "c1", "s1"))

	got, _ := store.FindOne(ctx, "c1", "s1")
	got.Answers["q"] = domain.TextAnswer("tampered")

	again, _ := store.FindOne(ctx, "c1", "s1")
	if _, ok := again.Answers["q"]; ok {
		t.Fatalf("expected stored attempt isolated from caller mutation")
	}
}
