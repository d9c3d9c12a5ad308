package app

import (
	"strings"
	"unicode/utf8"

	"quizhub-service/internal/domain"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	minTimeLimit      = 1
	maxTimeLimit      = 180
	minPoints         = 1
	maxPoints         = 10
	defaultPoints     = 1
	minChoices        = 2
)

func validateQuiz(q *domain.Quiz) error {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)

	if q.Title == "" {
		return domain.Validation("title is required")
	}
	if utf8.RuneCountInString(q.Title) > maxTitleLen {
		return domain.Validation("title cannot be more than 100 characters")
	}
	if utf8.RuneCountInString(q.Description) > maxDescriptionLen {
		return domain.Validation("description cannot be more than 500 characters")
	}
	if q.TimeLimit != nil && (*q.TimeLimit < minTimeLimit || *q.TimeLimit > maxTimeLimit) {
		return domain.Validation("time limit must be between 1 and 180 minutes")
	}
	return nil
}

// validateQuestion checks the question invariants and applies single-choice
// normalization. Zero points means the default of 1.
func validateQuestion(q *domain.Question) error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return domain.Validation("question text is required")
	}
	if len(q.Choices) < minChoices {
		return domain.Validation("question must have at least 2 choices")
	}

	hasCorrect := false
	for i := range q.Choices {
		q.Choices[i].Text = strings.TrimSpace(q.Choices[i].Text)
		if q.Choices[i].Text == "" {
			return domain.Validation("choice text is required")
		}
		hasCorrect = hasCorrect || q.Choices[i].IsCorrect
	}
	if !hasCorrect {
		return domain.Validation("question must have at least 1 correct choice")
	}

	if q.Points == 0 {
		q.Points = defaultPoints
	}
	if q.Points < minPoints || q.Points > maxPoints {
		return domain.Validation("points must be between 1 and 10")
	}

	q.Choices = NormalizeChoices(q.IsMultipleChoice, q.Choices)
	return nil
}

// NormalizeChoices keeps only the first correct choice of a single-choice
// question. The input slice is not modified.
func NormalizeChoices(isMultipleChoice bool, choices []domain.Choice) []domain.Choice {
	out := make([]domain.Choice, len(choices))
	copy(out, choices)
	if isMultipleChoice {
		return out
	}

	seen := false
	for i := range out {
		if !out[i].IsCorrect {
			continue
		}
		if seen {
			out[i].IsCorrect = false
		}
		seen = true
	}
	return out
}
