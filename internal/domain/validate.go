package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNicknameLength bounds display names in runes.
const MaxNicknameLength = 32

// QuizLimits bounds what a hosted quiz may contain.
type QuizLimits struct {
	MinTimeLimit int
	MaxTimeLimit int
	MaxQuestions int
}

// DefaultQuizLimits are used when no configuration overrides them.
var DefaultQuizLimits = QuizLimits{MinTimeLimit: 10, MaxTimeLimit: 120, MaxQuestions: 100}

// Validate checks a quiz before it is allowed to back a session.
func (q Quiz) Validate(limits QuizLimits) error {
	if strings.TrimSpace(q.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if len(q.Questions) == 0 {
		return Invalid("questions", "at least one question is required")
	}
	if limits.MaxQuestions > 0 && len(q.Questions) > limits.MaxQuestions {
		return Invalid("questions", "at most %d questions are allowed", limits.MaxQuestions)
	}
	for i, question := range q.Questions {
		if err := question.validate(limits); err != nil {
			verr := err.(*ValidationError)
			verr.Field = fmt.Sprintf("questions[%d].%s", i, verr.Field)
			return verr
		}
	}
	return nil
}

func (q Question) validate(limits QuizLimits) error {
	if strings.TrimSpace(q.Text) == "" {
		return Invalid("text", "must not be empty")
	}
	if len(q.Options) < 2 {
		return Invalid("options", "at least two options are required")
	}
	for j, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return Invalid(fmt.Sprintf("options[%d]", j), "must not be empty")
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return Invalid("correctAnswer", "must index one of the %d options", len(q.Options))
	}
	if q.TimeLimit < limits.MinTimeLimit || q.TimeLimit > limits.MaxTimeLimit {
		return Invalid("timeLimit", "must be between %d and %d seconds", limits.MinTimeLimit, limits.MaxTimeLimit)
	}
	return nil
}

// NormalizeNickname trims and validates a player's display name.
func NormalizeNickname(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", Invalid("nickname", "must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxNicknameLength {
		return "", Invalid("nickname", "must be at most %d characters", MaxNicknameLength)
	}
	return name, nil
}
