package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

const uniqueViolation = "23505"

// Store implements app.Store on Postgres through bun.
type Store struct {
	db  *bun.DB
	idb bun.IDB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, idb: db}
}

// RunInTx runs fn inside a bun transaction. Nested calls join the outer one.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if _, inTx := s.idb.(bun.Tx); inTx {
		return fn(ctx, s)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: s.db, idb: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if _, err := s.idb.NewInsert().Model(userToModel(*user)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var m userModel
	if err := s.idb.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user")
	}
	return m.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m userModel
	if err := s.idb.NewSelect().Model(&m).Where("email = ?", email).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user by email")
	}
	return m.toDomain(), nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if _, err := s.idb.NewInsert().Model(quizToModel(*quiz)).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var m quizModel
	if err := s.idb.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	return m.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	var models []quizModel
	q := s.idb.NewSelect().Model(&models).Order("created_at ASC", "id ASC")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}

	out := make([]domain.Quiz, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	m := quizToModel(*quiz)
	res, err := s.idb.NewUpdate().
		Model(m).
		Column("title", "description", "time_limit", "updated_at").
		WherePK().
		Returning("is_published").
		Exec(ctx)
	if err != nil {
		return notFound(err, domain.ErrQuizNotFound, "update quiz")
	}
	if err := expectRow(res, domain.ErrQuizNotFound); err != nil {
		return err
	}
	quiz.IsPublished = m.IsPublished
	return nil
}

func (s *Store) PublishQuiz(ctx context.Context, id string, at time.Time) error {
	res, err := s.idb.NewUpdate().
		Model((*quizModel)(nil)).
		Set("is_published = TRUE").
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("publish quiz: %w", err)
	}
	return expectRow(res, domain.ErrQuizNotFound)
}

// LockQuiz selects the row FOR UPDATE.
func (s *Store) LockQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var m quizModel
	if err := s.idb.NewSelect().Model(&m).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "lock quiz")
	}
	return m.toDomain(), nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.idb.NewDelete().Model((*quizModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return expectRow(res, domain.ErrQuizNotFound)
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if _, err := s.idb.NewInsert().Model(questionToModel(*question)).Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var m questionModel
	if err := s.idb.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "select question")
	}
	return m.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var models []questionModel
	err := s.idb.NewSelect().
		Model(&models).
		Where("quiz_id = ?", quizID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	out := make([]domain.Question, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (s *Store) CountQuestions(ctx context.Context, quizID string) (int, error) {
	n, err := s.idb.NewSelect().Model((*questionModel)(nil)).Where("quiz_id = ?", quizID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	res, err := s.idb.NewUpdate().Model(questionToModel(*question)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return expectRow(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.idb.NewDelete().Model((*questionModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectRow(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestionsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.idb.NewDelete().Model((*questionModel)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CreateSubmission relies on the (quiz_id, user_id) unique constraint to
// reject a second submission, even when two inserts race.
func (s *Store) CreateSubmission(ctx context.Context, submission *domain.Submission) error {
	if _, err := s.idb.NewInsert().Model(submissionToModel(*submission)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySubmitted
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *Store) HasSubmission(ctx context.Context, quizID, userID string) (bool, error) {
	exists, err := s.idb.NewSelect().
		Model((*submissionModel)(nil)).
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

func (s *Store) ListSubmissionsByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	return s.listSubmissions(ctx, "quiz_id = ?", quizID)
}

func (s *Store) ListSubmissionsByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.listSubmissions(ctx, "user_id = ?", userID)
}

func (s *Store) DeleteSubmissionsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.idb.NewDelete().Model((*submissionModel)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) listSubmissions(ctx context.Context, where string, arg string) ([]domain.Submission, error) {
	var models []submissionModel
	err := s.idb.NewSelect().
		Model(&models).
		Where(where, arg).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}

	out := make([]domain.Submission, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expectRow(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
