package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizhub-service/internal/domain"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID          string    `bun:"id,pk,type:uuid"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	OwnerID     string    `bun:"owner_id,type:uuid,notnull"`
	IsPublished bool      `bun:"is_published,notnull"`
	TimeLimit   *int      `bun:"time_limit"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID               string          `bun:"id,pk,type:uuid"`
	QuizID           string          `bun:"quiz_id,type:uuid,notnull"`
	Text             string          `bun:"question_text,notnull"`
	Choices          []domain.Choice `bun:"choices,type:jsonb,notnull"`
	IsMultipleChoice bool            `bun:"is_multiple_choice,notnull"`
	Points           int             `bun:"points,notnull"`
	CreatedAt        time.Time       `bun:"created_at,notnull"`
	UpdatedAt        time.Time       `bun:"updated_at,notnull"`
}

type submissionModel struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID             string          `bun:"id,pk,type:uuid"`
	QuizID         string          `bun:"quiz_id,type:uuid,notnull"`
	UserID         string          `bun:"user_id,type:uuid,notnull"`
	Answers        []domain.Answer `bun:"answers,type:jsonb,notnull"`
	Score          int             `bun:"score,notnull"`
	MaxScore       int             `bun:"max_score,notnull"`
	StartedAt      time.Time       `bun:"started_at,notnull"`
	SubmittedAt    time.Time       `bun:"submitted_at,notnull"`
	CompletionTime int             `bun:"completion_time,notnull"`
}

func userToModel(u domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
	}
}

func quizToModel(q domain.Quiz) *quizModel {
	return &quizModel{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		OwnerID:     q.OwnerID,
		IsPublished: q.IsPublished,
		TimeLimit:   q.TimeLimit,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (m quizModel) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		OwnerID:     m.OwnerID,
		IsPublished: m.IsPublished,
		TimeLimit:   m.TimeLimit,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func questionToModel(q domain.Question) *questionModel {
	return &questionModel{
		ID:               q.ID,
		QuizID:           q.QuizID,
		Text:             q.Text,
		Choices:          q.Choices,
		IsMultipleChoice: q.IsMultipleChoice,
		Points:           q.Points,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:               m.ID,
		QuizID:           m.QuizID,
		Text:             m.Text,
		Choices:          m.Choices,
		IsMultipleChoice: m.IsMultipleChoice,
		Points:           m.Points,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func submissionToModel(s domain.Submission) *submissionModel {
	answers := s.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return &submissionModel{
		ID:             s.ID,
		QuizID:         s.QuizID,
		UserID:         s.UserID,
		Answers:        answers,
		Score:          s.Score,
		MaxScore:       s.MaxScore,
		StartedAt:      s.StartedAt,
		SubmittedAt:    s.SubmittedAt,
		CompletionTime: s.CompletionTimeSeconds,
	}
}

func (m submissionModel) toDomain() domain.Submission {
	return domain.Submission{
		ID:                    m.ID,
		QuizID:                m.QuizID,
		UserID:                m.UserID,
		Answers:               m.Answers,
		Score:                 m.Score,
		MaxScore:              m.MaxScore,
		StartedAt:             m.StartedAt,
		SubmittedAt:           m.SubmittedAt,
		CompletionTimeSeconds: m.CompletionTime,
	}
}
