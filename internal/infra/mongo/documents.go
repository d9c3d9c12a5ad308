package mongo

import (
	"time"

	"quizhub-service/internal/domain"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type quizDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	OwnerID     string    `bson:"createdBy"`
	IsPublished bool      `bson:"isPublished"`
	TimeLimit   *int      `bson:"timeLimit,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
	Revision    int64     `bson:"revision,omitempty"`
}

type choiceDoc struct {
	Text      string `bson:"text"`
	IsCorrect bool   `bson:"isCorrect"`
}

type questionDoc struct {
	ID               string      `bson:"_id"`
	QuizID           string      `bson:"quizId"`
	Text             string      `bson:"questionText"`
	Choices          []choiceDoc `bson:"choices"`
	IsMultipleChoice bool        `bson:"isMultipleChoice"`
	Points           int         `bson:"points"`
	CreatedAt        time.Time   `bson:"createdAt"`
	UpdatedAt        time.Time   `bson:"updatedAt"`
}

type answerDoc struct {
	QuestionID      string `bson:"questionId"`
	SelectedChoices []int  `bson:"selectedChoices"`
}

type submissionDoc struct {
	ID             string      `bson:"_id"`
	QuizID         string      `bson:"quizId"`
	UserID         string      `bson:"userId"`
	Answers        []answerDoc `bson:"answers"`
	Score          int         `bson:"score"`
	MaxScore       int         `bson:"maxScore"`
	StartedAt      time.Time   `bson:"startedAt"`
	SubmittedAt    time.Time   `bson:"submittedAt"`
	CompletionTime int         `bson:"completionTime"`
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt,
	}
}

func toQuizDoc(q domain.Quiz) quizDoc {
	return quizDoc{
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

func (d quizDoc) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		IsPublished: d.IsPublished,
		TimeLimit:   d.TimeLimit,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toQuestionDoc(q domain.Question) questionDoc {
	choices := make([]choiceDoc, len(q.Choices))
	for i, c := range q.Choices {
		choices[i] = choiceDoc{Text: c.Text, IsCorrect: c.IsCorrect}
	}
	return questionDoc{
		ID:               q.ID,
		QuizID:           q.QuizID,
		Text:             q.Text,
		Choices:          choices,
		IsMultipleChoice: q.IsMultipleChoice,
		Points:           q.Points,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func (d questionDoc) toDomain() domain.Question {
	choices := make([]domain.Choice, len(d.Choices))
	for i, c := range d.Choices {
		choices[i] = domain.Choice{Text: c.Text, IsCorrect: c.IsCorrect}
	}
	return domain.Question{
		ID:               d.ID,
		QuizID:           d.QuizID,
		Text:             d.Text,
		Choices:          choices,
		IsMultipleChoice: d.IsMultipleChoice,
		Points:           d.Points,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func toSubmissionDoc(s domain.Submission) submissionDoc {
	answers := make([]answerDoc, len(s.Answers))
	for i, a := range s.Answers {
		answers[i] = answerDoc{QuestionID: a.QuestionID, SelectedChoices: a.SelectedChoices}
	}
	return submissionDoc{
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

func (d submissionDoc) toDomain() domain.Submission {
	answers := make([]domain.Answer, len(d.Answers))
	for i, a := range d.Answers {
		answers[i] = domain.Answer{QuestionID: a.QuestionID, SelectedChoices: a.SelectedChoices}
	}
	return domain.Submission{
		ID:                    d.ID,
		QuizID:                d.QuizID,
		UserID:                d.UserID,
		Answers:               answers,
		Score:                 d.Score,
		MaxScore:              d.MaxScore,
		StartedAt:             d.StartedAt,
		SubmittedAt:           d.SubmittedAt,
		CompletionTimeSeconds: d.CompletionTime,
	}
}
