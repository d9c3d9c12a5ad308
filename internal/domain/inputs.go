package domain

import "time"

// CreateQuizInput carries the fields a teacher provides for a new quiz.
type CreateQuizInput struct {
	Title       string
	Description string
	TimeLimit   *int
}

// QuizPatch holds optional quiz updates; nil fields are left untouched.
type QuizPatch struct {
	Title          *string
	Description    *string
	TimeLimit      *int
	ClearTimeLimit bool
}

// QuestionInput carries a full question definition.
type QuestionInput struct {
	Text             string
	Choices          []Choice
	IsMultipleChoice bool
	Points           int
}

// QuestionPatch holds optional question updates; nil fields are left untouched.
type QuestionPatch struct {
	Text             *string
	Choices          []Choice
	IsMultipleChoice *bool
	Points           *int
}

// SubmitInput is a student's answer sheet.
type SubmitInput struct {
	Answers   []Answer
	StartedAt time.Time
}

// RegisterInput creates a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// Session is an authenticated user with a fresh token pair.
type Session struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	AccessExpiry  time.Time `json:"-"`
	RefreshExpiry time.Time `json:"-"`
}

// TokenClaims is the verified content of an access or refresh token.
type TokenClaims struct {
	UserID    string
	Role      Role
	ExpiresAt time.Time
}
