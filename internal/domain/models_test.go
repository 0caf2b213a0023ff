package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestContestStatusClassification(t *testing.T) {
	c := Contest{Active: true, StartsAt: t0, EndsAt: t0.Add(time.Hour)}

	cases := []struct {
		name string
		now  time.Time
		want ContestStatus
	}{
		{"before start", t0.Add(-time.Second), StatusUpcoming},
		{"at start", t0, StatusOngoing},
		{"inside", t0.Add(30 * time.Minute), StatusOngoing},
		{"at end", t0.Add(time.Hour), StatusOngoing},
		{"after end", t0.Add(time.Hour + time.Second), StatusEnded},
	}
	for _, tc := range cases {
		if got := c.Status(tc.now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestInactiveAlwaysWins(t *testing.T) {
	c := Contest{Active: false, StartsAt: t0, EndsAt: t0.Add(time.Hour)}
	for _, now := range []time.Time{t0.Add(-time.Hour), t0, t0.Add(10 * time.Minute), t0.Add(2 * time.Hour)} {
		if got := c.Status(now); got != StatusInactive {
			t.Fatalf("expected Inactive at %v, got %s", now, got)
		}
		if c.AcceptsAttempts(now) || c.VisibleToStudents(now) {
			t.Fatalf("inactive contest must not accept or show at %v", now)
		}
	}
}

func TestAttemptExpiryBoundary(t *testing.T) {
	c := Contest{DurationMinutes: 30}
	a := Attempt{StartedAt: t0}

	if a.HasExpired(c, t0.Add(30*time.Minute-time.Nanosecond)) {
		t.Fatalf("expected attempt alive just before the budget")
	}
	if !a.HasExpired(c, t0.Add(30*time.Minute)) {
		t.Fatalf("expected attempt expired exactly at the budget")
	}
	if got := a.Remaining(c, t0.Add(10*time.Minute)); got != 20*time.Minute {
		t.Fatalf("expected 20m remaining, got %v", got)
	}
	if got := a.Remaining(c, t0.Add(time.Hour)); got != 0 {
		t.Fatalf("expected remaining clamped to 0, got %v", got)
	}
}

func TestAnswerJSON(t *testing.T) {
	var answers map[string]Answer
	if err := json.Unmarshal([]byte(`{"a":"Paris","b":["C","A"],"c":null}`), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if answers["a"].Multi || answers["a"].Text != "Paris" {
		t.Fatalf("expected single answer, got %+v", answers["a"])
	}
	if !answers["b"].Multi || len(answers["b"].Choices) != 2 {
		t.Fatalf("expected set answer, got %+v", answers["b"])
	}
	if answers["c"].Multi || answers["c"].Text != "" {
		t.Fatalf("expected empty answer for null, got %+v", answers["c"])
	}

	out, err := json.Marshal(ChoiceAnswer())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected empty set to encode as [], got %s", out)
	}
}

func TestPublicViewHidesAnswers(t *testing.T) {
	c := Contest{Questions: []Question{
		{Type: SingleChoice, Prompt: "p1", Choices: []string{"a", "b"}, Answer: "a", Points: 2},
		{Type: MultiChoice, Prompt: "p2", Choices: []string{"a", "b"}, Answers: []string{"a"}, Points: 3},
	}}
	view := c.PublicView()
	for _, q := range view.Questions {
		if q.Answer != "" || len(q.Answers) != 0 {
			t.Fatalf("expected answers stripped, got %+v", q)
		}
	}
	if c.Questions[0].Answer != "a" {
		t.Fatalf("public view must not mutate the definition")
	}
	if view.MaxScore() != 5 {
		t.Fatalf("expected max score 5, got %d", view.MaxScore())
	}
}

func TestStorageErrorMatchesBoth(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("attempts.insert", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error to match ErrStorage and cause, got %v", err)
	}
	if NewStorageError("noop", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}
