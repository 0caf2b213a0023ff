package domain

import "fmt"

// ValidateContest checks a contest definition before it reaches any store.
func ValidateContest(c Contest) error {
	if c.Name == "" {
		return invalid("name", "required")
	}
	if c.StartsAt.IsZero() || c.EndsAt.IsZero() {
		return invalid("window", "start and end are required")
	}
	if !c.EndsAt.After(c.StartsAt) {
		return invalid("window", "end must be after start")
	}
	if c.DurationMinutes < 1 {
		return invalid("durationMinutes", "must be at least 1 minute")
	}
	if len(c.Questions) == 0 {
		return invalid("questions", "need at least one question")
	}

	prompts := make(map[string]int, len(c.Questions))
	for i, q := range c.Questions {
		if err := ValidateQuestion(i+1, q); err != nil {
			return err
		}
		if prev, ok := prompts[q.Prompt]; ok {
			return invalid(questionField(i+1, "prompt"), "duplicates question %d", prev)
		}
		prompts[q.Prompt] = i + 1
	}
	return nil
}

// ValidateQuestion checks one question; n is its 1-based position.
func ValidateQuestion(n int, q Question) error {
	if q.Prompt == "" {
		return invalid(questionField(n, "prompt"), "required")
	}
	if q.Points < 0 {
		return invalid(questionField(n, "points"), "must be non-negative")
	}

	switch q.Type {
	case SingleChoice:
		if err := validateChoices(n, q.Choices); err != nil {
			return err
		}
		if q.Answer == "" {
			return invalid(questionField(n, "answer"), "required")
		}
		if !contains(q.Choices, q.Answer) {
			return invalid(questionField(n, "answer"), "%q is not one of the choices", q.Answer)
		}
	case MultiChoice:
		if err := validateChoices(n, q.Choices); err != nil {
			return err
		}
		if len(q.Answers) == 0 {
			return invalid(questionField(n, "answers"), "required")
		}
		for _, ans := range q.Answers {
			if !contains(q.Choices, ans) {
				return invalid(questionField(n, "answers"), "%q is not one of the choices", ans)
			}
		}
	case FreeText:
		if q.Answer == "" {
			return invalid(questionField(n, "answer"), "required")
		}
		if len(q.Choices) > 0 {
			return invalid(questionField(n, "choices"), "not allowed for free-text questions")
		}
	default:
		return invalid(questionField(n, "type"), "unknown question type %q", q.Type)
	}
	return nil
}

func validateChoices(n int, choices []string) error {
	if len(choices) < 2 {
		return invalid(questionField(n, "choices"), "requires at least 2 options")
	}
	for _, c := range choices {
		if c == "" {
			return invalid(questionField(n, "choices"), "options must not be empty")
		}
	}
	return nil
}

func questionField(n int, name string) string {
	return fmt.Sprintf("questions[%d].%s", n, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
