package domain

import "time"

// Role is the coarse-grained permission class of a user.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// Requester is the authenticated identity a request acts as.
type Requester struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Requester returns the identity used by core operations.
func (u User) Requester() Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

// Quiz is owned by a teacher and moves from draft to published exactly once.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	IsPublished bool      `json:"isPublished"`
	TimeLimit   *int      `json:"timeLimit"` // minutes, nil means no limit
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Status is the list-view projection of IsPublished.
func (q Quiz) Status() string {
	if q.IsPublished {
		return "published"
	}
	return "draft"
}

// Choice is one selectable option; its index within Question.Choices identifies it.
type Choice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question belongs to exactly one quiz.
type Question struct {
	ID               string    `json:"id"`
	QuizID           string    `json:"quizId"`
	Text             string    `json:"questionText"`
	Choices          []Choice  `json:"choices"`
	IsMultipleChoice bool      `json:"isMultipleChoice"`
	Points           int       `json:"points"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// AnswerKeyHidden marks a copy whose choices carry no correctness.
	AnswerKeyHidden bool `json:"-"`
}

// CorrectIndexes returns the positions of the correct choices in order.
func (q Question) CorrectIndexes() []int {
	out := make([]int, 0, len(q.Choices))
	for i, c := range q.Choices {
		if c.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

// Redacted returns a copy without the answer key, for viewers that may not
// see it.
func (q Question) Redacted() Question {
	choices := make([]Choice, len(q.Choices))
	for i, c := range q.Choices {
		choices[i] = Choice{Text: c.Text}
	}
	q.Choices = choices
	q.AnswerKeyHidden = true
	return q
}

// Answer is one submitted selection.
type Answer struct {
	QuestionID      string `json:"questionId"`
	SelectedChoices []int  `json:"selectedChoices"`
}

// Submission is created once per (quiz, user) and never changes afterwards.
type Submission struct {
	ID                    string    `json:"id"`
	QuizID                string    `json:"quizId"`
	UserID                string    `json:"userId"`
	Answers               []Answer  `json:"answers"`
	Score                 int       `json:"score"`
	MaxScore              int       `json:"maxScore"`
	StartedAt             time.Time `json:"startedAt"`
	SubmittedAt           time.Time `json:"submittedAt"`
	CompletionTimeSeconds int       `json:"completionTime"`
}

// SubmissionResult is returned to the student right after submitting.
type SubmissionResult struct {
	Submission Submission `json:"submission"`
	Score      int        `json:"score"`
	MaxScore   int        `json:"maxScore"`
	Percentage int        `json:"percentage"`
}

// Stats summarizes the submissions of a quiz.
type Stats struct {
	QuizID                       string    `json:"quizId,omitempty"`
	Count                        int       `json:"count"`
	AverageScore                 float64   `json:"averageScore"`
	HighestScore                 int       `json:"highestScore"`
	LowestScore                  int       `json:"lowestScore"`
	AverageCompletionTimeSeconds float64   `json:"averageCompletionTimeSeconds"`
	UpdatedAt                    time.Time `json:"updatedAt,omitempty"`
}

// QuizDetail is a quiz together with its questions.
type QuizDetail struct {
	Quiz
	Questions []Question `json:"questions"`
}

// QuizResults is what a quiz owner sees on the results page.
type QuizResults struct {
	Submissions []Submission `json:"submissions"`
	Stats       Stats        `json:"stats"`
}
