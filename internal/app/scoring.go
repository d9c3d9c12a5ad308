package app

import (
	"math"

	"quizhub-service/internal/domain"
)

// ScoreAnswer reports whether selected answers question correctly.
// selected is a set: order and repeats do not matter.
func ScoreAnswer(question domain.Question, selected []int) bool {
	picked := indexSet(selected)
	correct := indexSet(question.CorrectIndexes())

	if question.IsMultipleChoice {
		if len(picked) != len(correct) {
			return false
		}
		for idx := range picked {
			if _, ok := correct[idx]; !ok {
				return false
			}
		}
		return true
	}

	// a single distinct selection means every entry equals selected[0]
	if len(picked) != 1 {
		return false
	}
	_, ok := correct[selected[0]]
	return ok
}

// DedupeAnswers keeps the first answer given for each question.
func DedupeAnswers(answers []domain.Answer) []domain.Answer {
	seen := make(map[string]struct{}, len(answers))
	out := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		if _, ok := seen[a.QuestionID]; ok {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ScoreAll scores answers against questions. maxScore counts every question,
// answered or not; answers to unknown questions contribute nothing.
func ScoreAll(questions []domain.Question, answers []domain.Answer) (score, maxScore int) {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		maxScore += q.Points
		byID[q.ID] = q
	}

	for _, a := range DedupeAnswers(answers) {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if ScoreAnswer(q, a.SelectedChoices) {
			score += q.Points
		}
	}
	return score, maxScore
}

// Percentage rounds score/maxScore to a whole percent; an empty quiz is 0%.
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(maxScore) * 100))
}

func indexSet(idx []int) map[int]struct{} {
	set := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		set[i] = struct{}{}
	}
	return set
}
