package app_test

import (
	"testing"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestGradeMultiChoiceIsAllOrNothing(t *testing.T) {
	q := domain.Question{
		Type:    domain.MultiChoice,
		Prompt:  "pick",
		Choices: []string{"A", "B", "C"},
		Answers: []string{"A", "C"},
		Points:  2,
	}

	cases := []struct {
		name string
		in   domain.Answer
		want int
	}{
		{"reordered", domain.ChoiceAnswer("C", "A"), 2},
		{"subset", domain.ChoiceAnswer("A"), 0},
		{"superset", domain.ChoiceAnswer("A", "B", "C"), 0},
		{"duplicates", domain.ChoiceAnswer("A", "C", "A"), 2},
		{"empty", domain.ChoiceAnswer(), 0},
		{"single string", domain.TextAnswer("A"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, app.Grade(q, tc.in))
		})
	}
}

func TestGradeSingleValued(t *testing.T) {
	mcq := domain.Question{Type: domain.SingleChoice, Prompt: "p", Choices: []string{"x", "y"}, Answer: "y", Points: 5}
	assert.Equal(t, 5, app.Grade(mcq, domain.TextAnswer("y")))
	assert.Equal(t, 0, app.Grade(mcq, domain.TextAnswer("x")))
	assert.Equal(t, 5, app.Grade(mcq, domain.ChoiceAnswer("y")), "one-element array collapses")
	assert.Equal(t, 0, app.Grade(mcq, domain.ChoiceAnswer("y", "x")))

	text := domain.Question{Type: domain.FreeText, Prompt: "t", Answer: "Paris", Points: 1}
	assert.Equal(t, 1, app.Grade(text, domain.TextAnswer("Paris")))
	assert.Equal(t, 0, app.Grade(text, domain.TextAnswer("paris")), "text comparison is exact")
	assert.Equal(t, 0, app.Grade(text, domain.Answer{}))
}

func TestGradeAllSumsAndFillsMissing(t *testing.T) {
	contest := tenPointContest()
	raw := map[string]domain.Answer{
		"2 + 2":   domain.TextAnswer("4"),
		"vowels":  domain.ChoiceAnswer("E", "A"),
		"unknown": domain.TextAnswer("ignored"),
	}

	answers, total := app.GradeAll(contest, raw)

	assert.Equal(t, 7, total)
	assert.Len(t, answers, 3)
	assert.NotContains(t, answers, "unknown")
	assert.Equal(t, domain.Answer{}, answers["capital of France"])

	_, empty := app.GradeAll(contest, nil)
	assert.Equal(t, 0, empty)
	missing, _ := app.GradeAll(contest, nil)
	assert.True(t, missing["vowels"].Multi, "missing multi-choice answer is an empty set")
}

func TestGradeAllIsPure(t *testing.T) {
	contest := tenPointContest()
	raw := map[string]domain.Answer{"vowels": domain.ChoiceAnswer("A", "E")}

	_, first := app.GradeAll(contest, raw)
	_, second := app.GradeAll(contest, raw)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A", "E"}, raw["vowels"].Choices)
	assert.Equal(t, []string{"A", "E"}, contest.Questions[1].Answers)
}
