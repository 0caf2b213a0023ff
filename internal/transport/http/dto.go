package http

import (
	"sort"
	"time"

	"mcq-contest-service/internal/domain"
)

// questionInput is the authoring shape of a question. Answer is a string for
// mcq and text questions and an array for msq questions.
type questionInput struct {
	Type    domain.QuestionType `json:"type"`
	Prompt  string              `json:"prompt"`
	Points  *int                `json:"points"`
	Choices []string            `json:"choices"`
	Answer  domain.Answer       `json:"answer"`
}

type contestInput struct {
	Name            string          `json:"name"`
	StartsAt        time.Time       `json:"startsAt"`
	EndsAt          time.Time       `json:"endsAt"`
	DurationMinutes int             `json:"durationMinutes"`
	Active          *bool           `json:"active"`
	Questions       []questionInput `json:"questions"`
}

// toContest fills authoring defaults: one point per question, active on.
func (in contestInput) toContest() domain.Contest {
	c := domain.Contest{
		Name:            in.Name,
		StartsAt:        in.StartsAt,
		EndsAt:          in.EndsAt,
		DurationMinutes: in.DurationMinutes,
		Active:          in.Active == nil || *in.Active,
		Questions:       make([]domain.Question, 0, len(in.Questions)),
	}
	for _, q := range in.Questions {
		points := 1
		if q.Points != nil {
			points = *q.Points
		}
		out := domain.Question{
			Type:    q.Type,
			Prompt:  q.Prompt,
			Points:  points,
			Choices: q.Choices,
		}
		if q.Type == domain.MultiChoice {
			out.Answers = multiAnswers(q.Answer, q.Choices)
		} else {
			out.Answer = q.Answer.Single()
		}
		c.Questions = append(c.Questions, out)
	}
	return c
}

// multiAnswers lists the members of a in choice order; members that are not
// choices go last, sorted, so validation can name them.
func multiAnswers(a domain.Answer, choices []string) []string {
	set := a.Set()
	out := make([]string, 0, len(set))
	for _, c := range choices {
		if _, ok := set[c]; ok {
			out = append(out, c)
			delete(set, c)
		}
	}
	rest := make([]string, 0, len(set))
	for m := range set {
		rest = append(rest, m)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

type submitInput struct {
	Answers map[string]domain.Answer `json:"answers"`
}

type attemptView struct {
	ID               string                   `json:"id"`
	ContestID        string                   `json:"contestId"`
	State            domain.AttemptState      `json:"state"`
	StartedAt        time.Time                `json:"startedAt"`
	Deadline         time.Time                `json:"deadline"`
	RemainingSeconds int                      `json:"remainingSeconds"`
	Score            int                      `json:"score"`
	MaxScore         int                      `json:"maxScore"`
	Completed        bool                     `json:"completed"`
	Expired          bool                     `json:"expired"`
	CompletedAt      *time.Time               `json:"completedAt,omitempty"`
	Answers          map[string]domain.Answer `json:"answers,omitempty"`
}

func newAttemptView(a domain.Attempt, c domain.Contest, now time.Time, loc *time.Location) *attemptView {
	if a.ID == "" {
		return nil
	}
	v := &attemptView{
		ID:               a.ID,
		ContestID:        a.ContestID,
		State:            a.State(),
		StartedAt:        a.StartedAt.In(loc),
		Deadline:         a.Deadline(c).In(loc),
		RemainingSeconds: int(a.Remaining(c, now).Seconds()),
		Score:            a.Score,
		MaxScore:         c.MaxScore(),
		Completed:        a.Completed,
		Expired:          a.Expired,
	}
	if a.Completed {
		v.RemainingSeconds = 0
		v.Answers = a.Answers
		if !a.CompletedAt.IsZero() {
			at := a.CompletedAt.In(loc)
			v.CompletedAt = &at
		}
	}
	return v
}

type attemptResponse struct {
	Attempt *attemptView   `json:"attempt"`
	Contest domain.Contest `json:"contest"`
}

func localize(c domain.Contest, loc *time.Location) domain.Contest {
	c.StartsAt = c.StartsAt.In(loc)
	c.EndsAt = c.EndsAt.In(loc)
	if !c.CreatedAt.IsZero() {
		c.CreatedAt = c.CreatedAt.In(loc)
	}
	return c
}
