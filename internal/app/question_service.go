package app

import (
	"context"
	"errors"
	"fmt"

	"quizhub-service/internal/domain"
)

// AddQuestion appends a question to a draft quiz owned by r.
func (s *QuizService) AddQuestion(ctx context.Context, r domain.Requester, quizID string, in domain.QuestionInput) (domain.Question, error) {
	quiz, err := s.quizForEdit(ctx, r, quizID, "not authorized to add questions to this quiz")
	if err != nil {
		return domain.Question{}, err
	}
	if quiz.IsPublished {
		return domain.Question{}, domain.ErrAddToPublished
	}

	now := s.now()
	question := domain.Question{
		ID:               s.newID(),
		QuizID:           quiz.ID,
		Text:             in.Text,
		Choices:          append([]domain.Choice(nil), in.Choices...),
		IsMultipleChoice: in.IsMultipleChoice,
		Points:           in.Points,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateQuestion(&question); err != nil {
		return domain.Question{}, err
	}
	err = s.withDraft(ctx, quiz.ID, domain.ErrAddToPublished, func(ctx context.Context, tx Store) error {
		if err := tx.CreateQuestion(ctx, &question); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// ListQuestions returns the questions of a quiz visible to r.
func (s *QuizService) ListQuestions(ctx context.Context, r domain.Requester, quizID string) ([]domain.Question, error) {
	if err := checkID(quizID); err != nil {
		return nil, err
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !CanViewQuiz(r, quiz) {
		return nil, domain.Forbidden("not authorized to access this quiz")
	}

	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return viewQuestions(r, quiz, questions), nil
}

// GetQuestion returns a single question visible to r.
func (s *QuizService) GetQuestion(ctx context.Context, r domain.Requester, id string) (domain.Question, error) {
	question, quiz, err := s.questionWithQuiz(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if !CanViewQuiz(r, quiz) {
		return domain.Question{}, domain.Forbidden("not authorized to access this question")
	}
	if !CanSeeAnswerKey(r, quiz) {
		question = question.Redacted()
	}
	return question, nil
}

// UpdateQuestion patches a question of a draft quiz owned by r.
func (s *QuizService) UpdateQuestion(ctx context.Context, r domain.Requester, id string, patch domain.QuestionPatch) (domain.Question, error) {
	question, quiz, err := s.questionWithQuiz(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if !CanEditQuiz(r, quiz) {
		return domain.Question{}, domain.Forbidden("not authorized to update this question")
	}
	if quiz.IsPublished {
		return domain.Question{}, domain.ErrUpdatePublished
	}

	if patch.Text != nil {
		question.Text = *patch.Text
	}
	if patch.Choices != nil {
		question.Choices = append([]domain.Choice(nil), patch.Choices...)
	}
	if patch.IsMultipleChoice != nil {
		question.IsMultipleChoice = *patch.IsMultipleChoice
	}
	if patch.Points != nil {
		if *patch.Points == 0 {
			return domain.Question{}, domain.Validation("points must be between 1 and 10")
		}
		question.Points = *patch.Points
	}
	if err := validateQuestion(&question); err != nil {
		return domain.Question{}, err
	}

	question.UpdatedAt = s.now()
	err = s.withDraft(ctx, quiz.ID, domain.ErrUpdatePublished, func(ctx context.Context, tx Store) error {
		if err := tx.UpdateQuestion(ctx, &question); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// DeleteQuestion removes a question from a draft quiz owned by r.
func (s *QuizService) DeleteQuestion(ctx context.Context, r domain.Requester, id string) error {
	question, quiz, err := s.questionWithQuiz(ctx, id)
	if err != nil {
		return err
	}
	if !CanEditQuiz(r, quiz) {
		return domain.Forbidden("not authorized to delete this question")
	}
	if quiz.IsPublished {
		return domain.ErrDeletePublished
	}
	return s.withDraft(ctx, quiz.ID, domain.ErrDeletePublished, func(ctx context.Context, tx Store) error {
		if err := tx.DeleteQuestion(ctx, question.ID); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
}

func (s *QuizService) questionWithQuiz(ctx context.Context, id string) (domain.Question, domain.Quiz, error) {
	if err := checkID(id); err != nil {
		return domain.Question{}, domain.Quiz{}, err
	}
	question, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, domain.Quiz{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, question.QuizID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Question{}, domain.Quiz{}, domain.ErrAssociatedQuizNotFound
		}
		return domain.Question{}, domain.Quiz{}, err
	}
	return question, quiz, nil
}

func viewQuestions(r domain.Requester, quiz domain.Quiz, questions []domain.Question) []domain.Question {
	if CanSeeAnswerKey(r, quiz) {
		return questions
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Redacted()
	}
	return out
}
