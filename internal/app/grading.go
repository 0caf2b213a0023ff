package app

import "mcq-contest-service/internal/domain"

// Grade awards the question's points for an exact match and nothing otherwise.
// Multi-choice answers compare as sets; there is no partial credit.
func Grade(q domain.Question, submitted domain.Answer) int {
	switch q.Type {
	case domain.MultiChoice:
		if sameSet(submitted.Set(), domain.ChoiceAnswer(q.Answers...).Set()) {
			return q.Points
		}
	default:
		if submitted.Single() == q.Answer {
			return q.Points
		}
	}
	return 0
}

// GradeAll grades raw against every question of the contest in definition
// order. The returned map has one entry per question; questions without a
// submission are recorded as an empty answer of the right shape.
func GradeAll(contest domain.Contest, raw map[string]domain.Answer) (map[string]domain.Answer, int) {
	answers := make(map[string]domain.Answer, len(contest.Questions))
	total := 0
	for _, q := range contest.Questions {
		submitted, ok := raw[q.Prompt]
		if !ok && q.Type == domain.MultiChoice {
			submitted = domain.ChoiceAnswer()
		}
		answers[q.Prompt] = submitted
		total += Grade(q, submitted)
	}
	return answers, total
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
