package domain

import "errors"

// Error kinds. Every error produced by the core unwraps to exactly one of them.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
)

// Error is a core error with a user-facing message and a kind.
type Error struct {
	kind error
	msg  string
}

// NewError builds an error of the given kind.
func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Validation is shorthand for a validation error with msg.
func Validation(msg string) error {
	return NewError(ErrValidation, msg)
}

// Forbidden is shorthand for a forbidden error with msg.
func Forbidden(msg string) error {
	return NewError(ErrForbidden, msg)
}

var (
	// ErrResourceNotFound is returned for malformed identifiers.
	ErrResourceNotFound = NewError(ErrNotFound, "resource not found")
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = NewError(ErrNotFound, "quiz not found")
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = NewError(ErrNotFound, "question not found")
	// ErrAssociatedQuizNotFound is returned when a question's quiz is gone.
	ErrAssociatedQuizNotFound = NewError(ErrNotFound, "associated quiz not found")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = NewError(ErrNotFound, "user not found")

	// ErrNoQuestionsToPublish blocks publishing an empty quiz.
	ErrNoQuestionsToPublish = NewError(ErrInvalidState, "cannot publish a quiz without questions")
	// ErrAddToPublished blocks adding questions after publish.
	ErrAddToPublished = NewError(ErrInvalidState, "cannot add questions to a published quiz")
	// ErrUpdatePublished blocks editing questions after publish.
	ErrUpdatePublished = NewError(ErrInvalidState, "cannot update questions in a published quiz")
	// ErrDeletePublished blocks deleting questions after publish.
	ErrDeletePublished = NewError(ErrInvalidState, "cannot delete questions from a published quiz")
	// ErrQuizNotPublished blocks submissions to a draft.
	ErrQuizNotPublished = NewError(ErrInvalidState, "this quiz is not published yet")

	// ErrAlreadySubmitted is returned for a second submission by the same user.
	ErrAlreadySubmitted = NewError(ErrConflict, "you have already submitted this quiz")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = NewError(ErrConflict, "email is already registered")

	// ErrQuizHasNoQuestions rejects submissions to a quiz without questions.
	ErrQuizHasNoQuestions = NewError(ErrValidation, "this quiz has no questions")

	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = NewError(ErrUnauthenticated, "invalid credentials")
	// ErrNotAuthorized is returned when no usable credential was presented.
	ErrNotAuthorized = NewError(ErrUnauthenticated, "not authorized to access this route")
	// ErrTokenExpired is returned for an expired access token.
	ErrTokenExpired = NewError(ErrUnauthenticated, "token expired, please refresh token")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown or revoked.
	ErrInvalidRefreshToken = NewError(ErrUnauthenticated, "invalid or expired refresh token")
)
