package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Lists come back in
// insertion order.
type Store struct {
	// mu is nil on the view handed to RunInTx callbacks; the outer lock is
	// already held there.
	mu   *sync.RWMutex
	data *state
}

type submissionKey struct {
	quizID string
	userID string
}

type state struct {
	seq         int64
	order       map[string]int64
	users       map[string]domain.User
	emails      map[string]string
	quizzes     map[string]domain.Quiz
	questions   map[string]domain.Question
	submissions map[string]domain.Submission
	submitted   map[submissionKey]string
}

func NewStore() *Store {
	return &Store{
		mu: &sync.RWMutex{},
		data: &state{
			order:       make(map[string]int64),
			users:       make(map[string]domain.User),
			emails:      make(map[string]string),
			quizzes:     make(map[string]domain.Quiz),
			questions:   make(map[string]domain.Question),
			submissions: make(map[string]domain.Submission),
			submitted:   make(map[submissionKey]string),
		},
	}
}

// RunInTx applies fn to a private copy of the data and swaps it in only when
// fn succeeds. Writers are serialized for the duration of fn.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.mu == nil {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.data.clone()
	if err := fn(ctx, &Store{data: draft}); err != nil {
		return err
	}
	s.data = draft
	return nil
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (st *state) clone() *state {
	out := &state{
		seq:         st.seq,
		order:       make(map[string]int64, len(st.order)),
		users:       make(map[string]domain.User, len(st.users)),
		emails:      make(map[string]string, len(st.emails)),
		quizzes:     make(map[string]domain.Quiz, len(st.quizzes)),
		questions:   make(map[string]domain.Question, len(st.questions)),
		submissions: make(map[string]domain.Submission, len(st.submissions)),
		submitted:   make(map[submissionKey]string, len(st.submitted)),
	}
	for k, v := range st.order {
		out.order[k] = v
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.emails {
		out.emails[k] = v
	}
	for k, v := range st.quizzes {
		out.quizzes[k] = v
	}
	for k, v := range st.questions {
		out.questions[k] = v
	}
	for k, v := range st.submissions {
		out.submissions[k] = v
	}
	for k, v := range st.submitted {
		out.submitted[k] = v
	}
	return out
}

func (st *state) track(id string) {
	st.seq++
	st.order[id] = st.seq
}

func (st *state) sortByInsertion(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return st.order[ids[i]] < st.order[ids[j]] })
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	defer s.lock()()
	if _, taken := s.data.emails[user.Email]; taken {
		return domain.ErrEmailTaken
	}
	s.data.users[user.ID] = *user
	s.data.emails[user.Email] = user.ID
	s.data.track(user.ID)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	defer s.rlock()()
	user, ok := s.data.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	defer s.rlock()()
	id, ok := s.data.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.data.users[id], nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	defer s.lock()()
	s.data.quizzes[quiz.ID] = cloneQuiz(*quiz)
	s.data.track(quiz.ID)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	defer s.rlock()()
	quiz, ok := s.data.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	defer s.rlock()()
	ids := make([]string, 0, len(s.data.quizzes))
	for id, q := range s.data.quizzes {
		if ownerID == "" || q.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	s.data.sortByInsertion(ids)

	out := make([]domain.Quiz, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneQuiz(s.data.quizzes[id]))
	}
	return out, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz *domain.Quiz) error {
	defer s.lock()()
	stored, ok := s.data.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	stored.Title = quiz.Title
	stored.Description = quiz.Description
	stored.TimeLimit = quiz.TimeLimit
	stored.UpdatedAt = quiz.UpdatedAt
	s.data.quizzes[quiz.ID] = cloneQuiz(stored)
	quiz.IsPublished = stored.IsPublished
	return nil
}

func (s *Store) PublishQuiz(_ context.Context, id string, at time.Time) error {
	defer s.lock()()
	stored, ok := s.data.quizzes[id]
	if !ok {
		return domain.ErrQuizNotFound
	}
	stored.IsPublished = true
	stored.UpdatedAt = at
	s.data.quizzes[id] = stored
	return nil
}

// LockQuiz is GetQuiz: the transaction view already holds the store lock.
func (s *Store) LockQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.data.quizzes, id)
	delete(s.data.order, id)
	return nil
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	defer s.lock()()
	s.data.questions[question.ID] = cloneQuestion(*question)
	s.data.track(question.ID)
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	defer s.rlock()()
	question, ok := s.data.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(question), nil
}

func (s *Store) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	defer s.rlock()()
	ids := s.data.questionIDs(quizID)
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneQuestion(s.data.questions[id]))
	}
	return out, nil
}

func (s *Store) CountQuestions(_ context.Context, quizID string) (int, error) {
	defer s.rlock()()
	return len(s.data.questionIDs(quizID)), nil
}

func (s *Store) UpdateQuestion(_ context.Context, question *domain.Question) error {
	defer s.lock()()
	if _, ok := s.data.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.data.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.data.questions, id)
	delete(s.data.order, id)
	return nil
}

func (s *Store) DeleteQuestionsByQuiz(_ context.Context, quizID string) (int, error) {
	defer s.lock()()
	ids := s.data.questionIDs(quizID)
	for _, id := range ids {
		delete(s.data.questions, id)
		delete(s.data.order, id)
	}
	return len(ids), nil
}

func (st *state) questionIDs(quizID string) []string {
	var ids []string
	for id, q := range st.questions {
		if q.QuizID == quizID {
			ids = append(ids, id)
		}
	}
	st.sortByInsertion(ids)
	return ids
}

// CreateSubmission checks and inserts under one lock, so concurrent attempts
// for the same (quiz, user) pair see exactly one winner.
func (s *Store) CreateSubmission(_ context.Context, submission *domain.Submission) error {
	defer s.lock()()
	key := submissionKey{quizID: submission.QuizID, userID: submission.UserID}
	if _, exists := s.data.submitted[key]; exists {
		return domain.ErrAlreadySubmitted
	}
	s.data.submissions[submission.ID] = cloneSubmission(*submission)
	s.data.submitted[key] = submission.ID
	s.data.track(submission.ID)
	return nil
}

func (s *Store) HasSubmission(_ context.Context, quizID, userID string) (bool, error) {
	defer s.rlock()()
	_, ok := s.data.submitted[submissionKey{quizID: quizID, userID: userID}]
	return ok, nil
}

func (s *Store) ListSubmissionsByQuiz(_ context.Context, quizID string) ([]domain.Submission, error) {
	defer s.rlock()()
	return s.data.listSubmissions(func(sub domain.Submission) bool { return sub.QuizID == quizID }), nil
}

func (s *Store) ListSubmissionsByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	defer s.rlock()()
	return s.data.listSubmissions(func(sub domain.Submission) bool { return sub.UserID == userID }), nil
}

func (s *Store) DeleteSubmissionsByQuiz(_ context.Context, quizID string) (int, error) {
	defer s.lock()()
	removed := 0
	for id, sub := range s.data.submissions {
		if sub.QuizID != quizID {
			continue
		}
		delete(s.data.submissions, id)
		delete(s.data.submitted, submissionKey{quizID: sub.QuizID, userID: sub.UserID})
		delete(s.data.order, id)
		removed++
	}
	return removed, nil
}

func (st *state) listSubmissions(match func(domain.Submission) bool) []domain.Submission {
	var ids []string
	for id, sub := range st.submissions {
		if match(sub) {
			ids = append(ids, id)
		}
	}
	st.sortByInsertion(ids)

	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneSubmission(st.submissions[id]))
	}
	return out
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	if q.TimeLimit != nil {
		limit := *q.TimeLimit
		q.TimeLimit = &limit
	}
	return q
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Choices = append([]domain.Choice(nil), q.Choices...)
	return q
}

func cloneSubmission(s domain.Submission) domain.Submission {
	answers := make([]domain.Answer, len(s.Answers))
	for i, a := range s.Answers {
		answers[i] = domain.Answer{
			QuestionID:      a.QuestionID,
			SelectedChoices: append([]int(nil), a.SelectedChoices...),
		}
	}
	s.Answers = answers
	return s
}
