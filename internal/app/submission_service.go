package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// SubmissionService scores answer sheets and reports results.
type SubmissionService struct {
	store      Store
	answerKeys AnswerKeyRepository
	feeds      FeedRepository
	now        func() time.Time
	newID      func() string
}

func NewSubmissionService(store Store, answerKeys AnswerKeyRepository, feeds FeedRepository, opts ...Option) *SubmissionService {
	o := defaultOptions(opts)
	return &SubmissionService{
		store:      store,
		answerKeys: answerKeys,
		feeds:      feeds,
		now:        o.now,
		newID:      o.newID,
	}
}

// Submit scores and records r's only submission for a published quiz.
func (s *SubmissionService) Submit(ctx context.Context, r domain.Requester, quizID string, in domain.SubmitInput) (domain.SubmissionResult, error) {
	if !CanSubmit(r) {
		return domain.SubmissionResult{}, domain.Forbidden("only students can submit quizzes")
	}
	if err := checkID(quizID); err != nil {
		return domain.SubmissionResult{}, err
	}
	if in.StartedAt.IsZero() {
		return domain.SubmissionResult{}, domain.Validation("start time must be a valid date")
	}

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if !quiz.IsPublished {
		return domain.SubmissionResult{}, domain.ErrQuizNotPublished
	}

	// Fast path only; the store's uniqueness constraint is the real guard.
	exists, err := s.store.HasSubmission(ctx, quiz.ID, r.ID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("check submission: %w", err)
	}
	if exists {
		return domain.SubmissionResult{}, domain.ErrAlreadySubmitted
	}

	questions, err := s.answerKeys.GetAnswerKey(ctx, quiz.ID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("load answer key: %w", err)
	}
	if len(questions) == 0 {
		return domain.SubmissionResult{}, domain.ErrQuizHasNoQuestions
	}

	answers := DedupeAnswers(in.Answers)
	score, maxScore := ScoreAll(questions, answers)

	now := s.now()
	submission := domain.Submission{
		ID:                    s.newID(),
		QuizID:                quiz.ID,
		UserID:                r.ID,
		Answers:               answers,
		Score:                 score,
		MaxScore:              maxScore,
		StartedAt:             in.StartedAt,
		SubmittedAt:           now,
		CompletionTimeSeconds: completionSeconds(in.StartedAt, now),
	}
	if err := s.store.CreateSubmission(ctx, &submission); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			return domain.SubmissionResult{}, domain.ErrAlreadySubmitted
		}
		return domain.SubmissionResult{}, fmt.Errorf("create submission: %w", err)
	}

	logger.WithContext(ctx).WithFields(logrus.Fields{
		"quiz_id":       quiz.ID,
		"submission_id": submission.ID,
		"score":         score,
		"max_score":     maxScore,
	}).Info("submission recorded")

	s.publishResults(ctx, quiz.ID)

	return domain.SubmissionResult{
		Submission: submission,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: Percentage(score, maxScore),
	}, nil
}

// Results returns every submission of a quiz plus summary stats, for its owner.
func (s *SubmissionService) Results(ctx context.Context, r domain.Requester, quizID string) (domain.QuizResults, error) {
	quiz, err := s.quizForResults(ctx, r, quizID)
	if err != nil {
		return domain.QuizResults{}, err
	}

	submissions, err := s.store.ListSubmissionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return domain.QuizResults{}, fmt.Errorf("list submissions: %w", err)
	}
	return domain.QuizResults{Submissions: submissions, Stats: Aggregate(submissions)}, nil
}

// WatchResults returns a channel that receives the quiz stats now and after
// every new submission. The caller must invoke the returned cancel function.
func (s *SubmissionService) WatchResults(ctx context.Context, r domain.Requester, quizID string) (<-chan domain.Stats, func(), error) {
	results, err := s.Results(ctx, r, quizID)
	if err != nil {
		return nil, nil, err
	}

	stats := results.Stats
	stats.UpdatedAt = s.now()
	ch, cancel, err := s.feeds.Subscribe(ctx, quizID, stats)
	if err != nil {
		return nil, nil, fmt.Errorf("watch results: %w", err)
	}
	return ch, cancel, nil
}

// MySubmissions lists r's own submissions.
func (s *SubmissionService) MySubmissions(ctx context.Context, r domain.Requester) ([]domain.Submission, error) {
	submissions, err := s.store.ListSubmissionsByUser(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionService) quizForResults(ctx context.Context, r domain.Requester, quizID string) (domain.Quiz, error) {
	if err := checkID(quizID); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !CanViewResults(r, quiz) {
		return domain.Quiz{}, domain.Forbidden("not authorized to access these results")
	}
	return quiz, nil
}

func (s *SubmissionService) publishResults(ctx context.Context, quizID string) {
	log := logger.WithContext(ctx).WithField("quiz_id", quizID)
	watched, err := s.feeds.Watched(ctx, quizID)
	if err != nil {
		log.WithError(err).Warn("results feed lookup failed")
		return
	}
	if !watched {
		return
	}

	submissions, err := s.store.ListSubmissionsByQuiz(ctx, quizID)
	if err != nil {
		log.WithError(err).Warn("results feed refresh failed")
		return
	}
	stats := Aggregate(submissions)
	stats.UpdatedAt = s.now()
	if err := s.feeds.Publish(ctx, quizID, stats); err != nil {
		log.WithError(err).Warn("results feed publish failed")
	}
}

// completionSeconds floors the elapsed time; a start time in the future counts as zero.
func completionSeconds(startedAt, submittedAt time.Time) int {
	elapsed := submittedAt.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Second)
}
