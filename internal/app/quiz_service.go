package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// QuizService owns the quiz lifecycle and the questions of each quiz.
type QuizService struct {
	store      Store
	answerKeys AnswerKeyRepository
	now        func() time.Time
	newID      func() string
}

func NewQuizService(store Store, answerKeys AnswerKeyRepository, opts ...Option) *QuizService {
	o := defaultOptions(opts)
	return &QuizService{store: store, answerKeys: answerKeys, now: o.now, newID: o.newID}
}

// CreateQuiz stores a new draft owned by r.
func (s *QuizService) CreateQuiz(ctx context.Context, r domain.Requester, in domain.CreateQuizInput) (domain.Quiz, error) {
	if !CanCreateQuiz(r) {
		return domain.Quiz{}, domain.Forbidden("only teachers can create quizzes")
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     r.ID,
		TimeLimit:   copyInt(in.TimeLimit),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateQuiz(&quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}

	logger.WithContext(ctx).WithField("quiz_id", quiz.ID).Info("quiz created")
	return quiz, nil
}

// ListQuizzes shows teachers their own quizzes and everyone else all quizzes.
func (s *QuizService) ListQuizzes(ctx context.Context, r domain.Requester) ([]domain.Quiz, error) {
	ownerID := ""
	if r.Role == domain.RoleTeacher {
		ownerID = r.ID
	}
	quizzes, err := s.store.ListQuizzes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// GetQuiz returns a quiz with its questions. Only the owner sees the answer key.
func (s *QuizService) GetQuiz(ctx context.Context, r domain.Requester, id string) (domain.QuizDetail, error) {
	if err := checkID(id); err != nil {
		return domain.QuizDetail{}, err
	}

	var (
		quiz      domain.Quiz
		questions []domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.store.GetQuiz(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.store.ListQuestions(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QuizDetail{}, err
	}

	if !CanViewQuiz(r, quiz) {
		return domain.QuizDetail{}, domain.Forbidden("not authorized to access this quiz")
	}
	return domain.QuizDetail{Quiz: quiz, Questions: viewQuestions(r, quiz, questions)}, nil
}

// UpdateQuiz applies patch to a quiz owned by r. Publication state is not
// patchable and does not block edits of quiz-level fields.
func (s *QuizService) UpdateQuiz(ctx context.Context, r domain.Requester, id string, patch domain.QuizPatch) (domain.Quiz, error) {
	quiz, err := s.quizForEdit(ctx, r, id, "not authorized to update this quiz")
	if err != nil {
		return domain.Quiz{}, err
	}

	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.ClearTimeLimit {
		quiz.TimeLimit = nil
	} else if patch.TimeLimit != nil {
		quiz.TimeLimit = copyInt(patch.TimeLimit)
	}
	if err := validateQuiz(&quiz); err != nil {
		return domain.Quiz{}, err
	}

	quiz.UpdatedAt = s.now()
	if err := s.store.UpdateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// PublishQuiz flips a quiz with at least one question to published.
// Publishing an already published quiz succeeds without changes.
func (s *QuizService) PublishQuiz(ctx context.Context, r domain.Requester, id string) (domain.Quiz, error) {
	if _, err := s.quizForEdit(ctx, r, id, "not authorized to publish this quiz"); err != nil {
		return domain.Quiz{}, err
	}

	var (
		quiz  domain.Quiz
		count int
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		if quiz, err = tx.LockQuiz(ctx, id); err != nil {
			return err
		}
		if quiz.IsPublished {
			return nil
		}
		if count, err = tx.CountQuestions(ctx, quiz.ID); err != nil {
			return fmt.Errorf("count questions: %w", err)
		}
		if count == 0 {
			return domain.ErrNoQuestionsToPublish
		}
		quiz.IsPublished = true
		quiz.UpdatedAt = s.now()
		if err := tx.PublishQuiz(ctx, quiz.ID, quiz.UpdatedAt); err != nil {
			return fmt.Errorf("publish quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}

	if count > 0 {
		logger.WithContext(ctx).WithFields(logrus.Fields{
			"quiz_id":   quiz.ID,
			"questions": count,
		}).Info("quiz published")
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz, its questions and its submissions in one transaction.
func (s *QuizService) DeleteQuiz(ctx context.Context, r domain.Requester, id string) error {
	quiz, err := s.quizForEdit(ctx, r, id, "not authorized to delete this quiz")
	if err != nil {
		return err
	}

	var removedQuestions, removedSubmissions int
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		if removedSubmissions, err = tx.DeleteSubmissionsByQuiz(ctx, quiz.ID); err != nil {
			return fmt.Errorf("delete submissions: %w", err)
		}
		if removedQuestions, err = tx.DeleteQuestionsByQuiz(ctx, quiz.ID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := tx.DeleteQuiz(ctx, quiz.ID); err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := logger.WithContext(ctx).WithField("quiz_id", quiz.ID)
	if err := s.answerKeys.Invalidate(ctx, quiz.ID); err != nil {
		log.WithError(err).Warn("answer key invalidation failed")
	}
	log.WithFields(logrus.Fields{
		"questions":   removedQuestions,
		"submissions": removedSubmissions,
	}).Info("quiz deleted")
	return nil
}

func (s *QuizService) quizForEdit(ctx context.Context, r domain.Requester, id, forbidden string) (domain.Quiz, error) {
	if err := checkID(id); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !CanEditQuiz(r, quiz) {
		return domain.Quiz{}, domain.Forbidden(forbidden)
	}
	return quiz, nil
}

// withDraft runs fn in a transaction that holds the quiz row and has seen it
// unpublished. PublishQuiz takes the same lock.
func (s *QuizService) withDraft(ctx context.Context, quizID string, published error, fn func(ctx context.Context, tx Store) error) error {
	return s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		quiz, err := tx.LockQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.IsPublished {
			return published
		}
		return fn(ctx, tx)
	})
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
