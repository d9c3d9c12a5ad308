package http

import (
	"encoding/json"
	"time"

	"quizhub-service/internal/domain"
)

// fieldMessages maps a struct field (or Type.Field for ambiguous names) to
// the message returned when its validation fails.
var fieldMessages = map[string]string{
	"Name":                  "name is required",
	"Email":                 "please include a valid email",
	"Password":              "password must be at least 6 characters long",
	"loginRequest.Password": "password is required",
	"Role":                  "role must be one of teacher, student, admin",
	"Title":                 "title is required and cannot be more than 100 characters",
	"Description":           "description cannot be more than 500 characters",
	"QuestionText":          "question text is required",
	"Choices":               "question must have at least 2 choices",
	"ChoiceText":            "choice text is required",
	"IsCorrect":             "isCorrect must be a boolean",
	"Points":                "points must be between 1 and 10",
	"Answers":               "answers must be an array",
	"QuestionID":            "question id is required",
	"SelectedChoices":       "selected choices must be an array",
	"StartedAt":             "start time must be a valid date",
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher student admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type createQuizRequest struct {
	Title       string      `json:"title" validate:"required,max=100"`
	Description string      `json:"description" validate:"max=500"`
	TimeLimit   nullableInt `json:"timeLimit"`
}

func (r createQuizRequest) toInput() domain.CreateQuizInput {
	return domain.CreateQuizInput{
		Title:       r.Title,
		Description: r.Description,
		TimeLimit:   r.TimeLimit.Value,
	}
}

type updateQuizRequest struct {
	Title       *string     `json:"title" validate:"omitempty,max=100"`
	Description *string     `json:"description" validate:"omitempty,max=500"`
	TimeLimit   nullableInt `json:"timeLimit"`
}

func (r updateQuizRequest) toPatch() domain.QuizPatch {
	return domain.QuizPatch{
		Title:          r.Title,
		Description:    r.Description,
		TimeLimit:      r.TimeLimit.Value,
		ClearTimeLimit: r.TimeLimit.Set && r.TimeLimit.Value == nil,
	}
}

type choiceRequest struct {
	ChoiceText string `json:"text" validate:"required"`
	IsCorrect  *bool  `json:"isCorrect" validate:"required"`
}

func toChoices(in []choiceRequest) []domain.Choice {
	if in == nil {
		return nil
	}
	out := make([]domain.Choice, len(in))
	for i, c := range in {
		out[i] = domain.Choice{Text: c.ChoiceText, IsCorrect: c.IsCorrect != nil && *c.IsCorrect}
	}
	return out
}

type createQuestionRequest struct {
	QuestionText     string          `json:"questionText" validate:"required"`
	Choices          []choiceRequest `json:"choices" validate:"min=2,dive"`
	IsMultipleChoice bool            `json:"isMultipleChoice"`
	Points           *int            `json:"points" validate:"omitempty,min=1,max=10"`
}

func (r createQuestionRequest) toInput() domain.QuestionInput {
	in := domain.QuestionInput{
		Text:             r.QuestionText,
		Choices:          toChoices(r.Choices),
		IsMultipleChoice: r.IsMultipleChoice,
	}
	if r.Points != nil {
		in.Points = *r.Points
	}
	return in
}

type updateQuestionRequest struct {
	QuestionText     *string         `json:"questionText" validate:"omitempty,min=1"`
	Choices          []choiceRequest `json:"choices" validate:"omitempty,min=2,dive"`
	IsMultipleChoice *bool           `json:"isMultipleChoice"`
	Points           *int            `json:"points" validate:"omitempty,min=1,max=10"`
}

func (r updateQuestionRequest) toPatch() domain.QuestionPatch {
	return domain.QuestionPatch{
		Text:             r.QuestionText,
		Choices:          toChoices(r.Choices),
		IsMultipleChoice: r.IsMultipleChoice,
		Points:           r.Points,
	}
}

type answerRequest struct {
	QuestionID      string `json:"questionId" validate:"required"`
	SelectedChoices []int  `json:"selectedChoices" validate:"required"`
}

type submitRequest struct {
	Answers   []answerRequest `json:"answers" validate:"required,dive"`
	StartedAt string          `json:"startedAt" validate:"required"`
}

func (r submitRequest) toInput() (domain.SubmitInput, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, r.StartedAt)
	if err != nil {
		return domain.SubmitInput{}, domain.Validation("start time must be a valid date")
	}
	answers := make([]domain.Answer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = domain.Answer{QuestionID: a.QuestionID, SelectedChoices: a.SelectedChoices}
	}
	return domain.SubmitInput{Answers: answers, StartedAt: startedAt}, nil
}

// nullableInt tells an explicit null apart from an absent field.
type nullableInt struct {
	Set   bool
	Value *int
}

func (n *nullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type quizListItem struct {
	domain.Quiz
	Status string `json:"status"`
}

func toQuizList(quizzes []domain.Quiz) []quizListItem {
	out := make([]quizListItem, len(quizzes))
	for i, q := range quizzes {
		out[i] = quizListItem{Quiz: q, Status: q.Status()}
	}
	return out
}

type choiceView struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// questionView leaves isCorrect out entirely when the answer key is hidden.
type questionView struct {
	ID               string       `json:"id"`
	QuizID           string       `json:"quizId"`
	Text             string       `json:"questionText"`
	Choices          []choiceView `json:"choices"`
	IsMultipleChoice bool         `json:"isMultipleChoice"`
	Points           int          `json:"points"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func toQuestionView(q domain.Question) questionView {
	choices := make([]choiceView, len(q.Choices))
	for i, c := range q.Choices {
		choices[i] = choiceView{Text: c.Text}
		if !q.AnswerKeyHidden {
			correct := c.IsCorrect
			choices[i].IsCorrect = &correct
		}
	}
	return questionView{
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

func toQuestionViews(questions []domain.Question) []questionView {
	out := make([]questionView, len(questions))
	for i, q := range questions {
		out[i] = toQuestionView(q)
	}
	return out
}

type quizDetailView struct {
	domain.Quiz
	Questions []questionView `json:"questions"`
}
