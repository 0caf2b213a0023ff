package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role is the coarse permission carried by an authenticated identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Identity is the authenticated caller as produced by the identity provider.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// QuestionType tags the Question variant.
type QuestionType string

const (
	// SingleChoice questions accept exactly one of the listed choices.
	SingleChoice QuestionType = "mcq"
	// MultiChoice questions accept a set of choices, graded all-or-nothing.
	MultiChoice QuestionType = "msq"
	// FreeText questions compare the submitted text to the stored answer.
	FreeText QuestionType = "text"
)

// Question is one scored item of a contest. Choices and Answers are only
// meaningful for choice questions; Answer holds the single expected value for
// mcq and text questions.
type Question struct {
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Points  int          `json:"points"`
	Choices []string     `json:"choices,omitempty"`
	Answer  string       `json:"answer,omitempty"`
	Answers []string     `json:"answers,omitempty"`
}

// Contest is a published contest definition. It owns its questions.
type Contest struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	StartsAt        time.Time  `json:"startsAt"`
	EndsAt          time.Time  `json:"endsAt"`
	DurationMinutes int        `json:"durationMinutes"`
	Active          bool       `json:"active"`
	Questions       []Question `json:"questions"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ContestStatus classifies a contest against a point in time.
type ContestStatus string

const (
	StatusInactive ContestStatus = "Inactive"
	StatusUpcoming ContestStatus = "Upcoming"
	StatusOngoing  ContestStatus = "Ongoing"
	StatusEnded    ContestStatus = "Ended"
)

// Status classifies the contest at now. The active flag overrides time.
func (c Contest) Status(now time.Time) ContestStatus {
	switch {
	case !c.Active:
		return StatusInactive
	case now.Before(c.StartsAt):
		return StatusUpcoming
	case now.After(c.EndsAt):
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// AcceptsAttempts reports whether new attempts and submissions are allowed at now.
func (c Contest) AcceptsAttempts(now time.Time) bool {
	return c.Status(now) == StatusOngoing
}

// VisibleToStudents reports whether the contest belongs on a student dashboard.
func (c Contest) VisibleToStudents(now time.Time) bool {
	s := c.Status(now)
	return s == StatusOngoing || s == StatusUpcoming
}

// TimeBudget is the per-attempt allowance measured from the attempt start.
func (c Contest) TimeBudget() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// MaxScore sums the points of every question.
func (c Contest) MaxScore() int {
	total := 0
	for _, q := range c.Questions {
		total += q.Points
	}
	return total
}

// PublicView returns a copy safe to show to students: correct answers removed.
func (c Contest) PublicView() Contest {
	out := c
	out.Questions = make([]Question, len(c.Questions))
	for i, q := range c.Questions {
		out.Questions[i] = Question{
			Type:    q.Type,
			Prompt:  q.Prompt,
			Points:  q.Points,
			Choices: append([]string(nil), q.Choices...),
		}
	}
	return out
}

// Answer is a submitted value: a single string, or a set of strings for
// multi-choice questions. It encodes as a JSON string or array.
type Answer struct {
	Text    string
	Choices []string
	Multi   bool
}

// TextAnswer builds a single-valued answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ChoiceAnswer builds a set-valued answer.
func ChoiceAnswer(choices ...string) Answer {
	return Answer{Choices: append([]string{}, choices...), Multi: true}
}

// Single returns the answer as one string. A set with exactly one member
// collapses to that member.
func (a Answer) Single() string {
	if a.Multi {
		if len(a.Choices) == 1 {
			return a.Choices[0]
		}
		return ""
	}
	return a.Text
}

// Set returns the answer as a set of strings. A non-empty single value becomes
// a one-element set.
func (a Answer) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(a.Choices))
	if !a.Multi {
		if a.Text != "" {
			set[a.Text] = struct{}{}
		}
		return set
	}
	for _, c := range a.Choices {
		set[c] = struct{}{}
	}
	return set
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Multi {
		choices := a.Choices
		if choices == nil {
			choices = []string{}
		}
		return json.Marshal(choices)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Answer{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var choices []string
		if err := json.Unmarshal(data, &choices); err != nil {
			return err
		}
		*a = ChoiceAnswer(choices...)
		return nil
	default:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = TextAnswer(text)
		return nil
	}
}

// AttemptState is the lifecycle position of an attempt record.
type AttemptState string

const (
	AttemptNone       AttemptState = "NONE"
	AttemptInProgress AttemptState = "IN_PROGRESS"
	AttemptCompleted  AttemptState = "COMPLETED"
)

// Attempt is one student's run at one contest.
type Attempt struct {
	ID          string            `json:"id"`
	ContestID   string            `json:"contestId"`
	StudentID   string            `json:"studentId"`
	StartedAt   time.Time         `json:"startedAt"`
	Answers     map[string]Answer `json:"answers"`
	Score       int               `json:"score"`
	Completed   bool              `json:"completed"`
	Expired     bool              `json:"expired"`
	CompletedAt time.Time         `json:"completedAt,omitempty"`
}

// State maps the completed flag onto the lifecycle.
func (a Attempt) State() AttemptState {
	if a.Completed {
		return AttemptCompleted
	}
	return AttemptInProgress
}

// Deadline is the instant the attempt's time budget runs out.
func (a Attempt) Deadline(c Contest) time.Time {
	return a.StartedAt.Add(c.TimeBudget())
}

// HasExpired reports whether the budget is exhausted at now (boundary inclusive).
func (a Attempt) HasExpired(c Contest, now time.Time) bool {
	return now.Sub(a.StartedAt) >= c.TimeBudget()
}

// Remaining is the time left at now, never negative.
func (a Attempt) Remaining(c Contest, now time.Time) time.Duration {
	left := a.Deadline(c).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Completion is the terminal write applied to an open attempt.
// A nil Answers map keeps whatever answers were already recorded.
type Completion struct {
	Answers     map[string]Answer
	Score       int
	Expired     bool
	CompletedAt time.Time
}

// Apply returns a copy of a with the completion written onto it.
func (c Completion) Apply(a Attempt) Attempt {
	if c.Answers != nil {
		a.Answers = c.Answers
	}
	a.Score = c.Score
	a.Completed = true
	a.Expired = c.Expired
	a.CompletedAt = c.CompletedAt
	return a
}

// LeaderboardEntry is a derived ranking row.
type LeaderboardEntry struct {
	StudentID   string `json:"studentId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Completed   bool   `json:"completed"`
}

// Leaderboard captures the ordered scoreboard for a contest.
type Leaderboard struct {
	ContestID    string             `json:"contestId"`
	Entries      []LeaderboardEntry `json:"entries"`
	Participants int                `json:"participants"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
