package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizhub-service/internal/domain"
)

func TestAnswerKeyCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)

	if _, err := cache.GetAnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get answer key: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:answer_key") {
		t.Fatalf("expected answer key hash in redis")
	}

	// Second call should hit the cache, loader not incremented.
	questions, err := cache.GetAnswerKey(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get answer key 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != "q1" || questions[1].ID != "q2" {
		t.Fatalf("expected creation order q1,q2, got %s,%s", questions[0].ID, questions[1].ID)
	}
	if !questions[0].Choices[1].IsCorrect || questions[1].Points != 3 {
		t.Fatalf("cached questions lost answer data: %+v", questions)
	}
}

func TestAnswerKeyCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = cache.GetAnswerKey(ctx, "quiz-1")
	if err := cache.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:answer_key") {
		t.Fatalf("expected answer key hash removed")
	}
	_, _ = cache.GetAnswerKey(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestAnswerKeyCacheExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = cache.GetAnswerKey(ctx, "quiz-1")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.GetAnswerKey(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	questions []domain.Question
	calls     int
}

func (l *countingLoader) LoadAnswerKey(_ context.Context, _ string) ([]domain.Question, error) {
	l.calls++
	return l.questions, nil
}

func sampleQuestions() []domain.Question {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Question{
		{
			ID:     "q1",
			QuizID: "quiz-1",
			Text:   "What is 2 + 2?",
			Choices: []domain.Choice{
				{Text: "3"},
				{Text: "4", IsCorrect: true},
			},
			Points:    1,
			CreatedAt: created,
		},
		{
			ID:               "q2",
			QuizID:           "quiz-1",
			Text:             "Pick the primes",
			IsMultipleChoice: true,
			Choices: []domain.Choice{
				{Text: "2", IsCorrect: true},
				{Text: "4"},
				{Text: "5", IsCorrect: true},
			},
			Points:    3,
			CreatedAt: created.Add(time.Second),
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
