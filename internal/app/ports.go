package app

import (
	"context"
	"time"

	"quizhub-service/internal/domain"
)

// QuizStore persists quizzes. Lookups of a missing quiz return domain.ErrQuizNotFound.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	// ListQuizzes returns every quiz when ownerID is empty.
	ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error)
	// UpdateQuiz writes title, description, time limit and updatedAt only,
	// then reloads the stored publication state into quiz.
	UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error
	// PublishQuiz sets isPublished; it never clears it.
	PublishQuiz(ctx context.Context, id string, at time.Time) error
	// LockQuiz reads a quiz and blocks concurrent writers to it until the
	// enclosing RunInTx returns. Outside a transaction it is a plain read.
	LockQuiz(ctx context.Context, id string) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
}

// QuestionStore persists questions. Lookups of a missing question return domain.ErrQuestionNotFound.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, question *domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	CountQuestions(ctx context.Context, quizID string) (int, error)
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	DeleteQuestionsByQuiz(ctx context.Context, quizID string) (int, error)
}

// SubmissionStore persists submissions. CreateSubmission must fail with
// domain.ErrAlreadySubmitted when (quizID, userID) already exists, atomically.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission *domain.Submission) error
	HasSubmission(ctx context.Context, quizID, userID string) (bool, error)
	ListSubmissionsByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string) ([]domain.Submission, error)
	DeleteSubmissionsByQuiz(ctx context.Context, quizID string) (int, error)
}

// UserStore persists accounts. CreateUser fails with domain.ErrEmailTaken on a duplicate email.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// Store is the full persistence layer. RunInTx runs fn against a transactional
// view of the store; a non-nil error from fn rolls every write back.
type Store interface {
	QuizStore
	QuestionStore
	SubmissionStore
	UserStore
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// AnswerKeyLoader reads the question set of a quiz from the system of record.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID string) ([]domain.Question, error)
}

// AnswerKeyRepository serves the question set of published quizzes from a cache.
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, quizID string) ([]domain.Question, error)
	Invalidate(ctx context.Context, quizID string) error
}

// FeedRepository routes live results snapshots to the watchers of a quiz.
type FeedRepository interface {
	// Subscribe registers a watcher and delivers initial to it first. The
	// returned cancel must be called once the watcher is gone.
	Subscribe(ctx context.Context, quizID string, initial domain.Stats) (<-chan domain.Stats, func(), error)
	// Publish delivers stats to every current watcher of the quiz.
	Publish(ctx context.Context, quizID string, stats domain.Stats) error
	// Watched reports whether anyone is watching the quiz.
	Watched(ctx context.Context, quizID string) (bool, error)
}

// TokenStore keeps refresh tokens and revoked access tokens.
type TokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	ValidateRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(userID string, role domain.Role) (string, time.Time, error)
	IssueRefreshToken(userID string) (string, time.Time, error)
	VerifyAccessToken(token string) (domain.TokenClaims, error)
	VerifyRefreshToken(token string) (domain.TokenClaims, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
