package app_test

import (
	"context"
	"testing"
	"time"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/infra/memory"
)

var (
	teacher      = domain.Requester{ID: "8f2c5d9e-4b1a-4c3e-9f7d-1a2b3c4d5e01", Role: domain.RoleTeacher}
	otherTeacher = domain.Requester{ID: "8f2c5d9e-4b1a-4c3e-9f7d-1a2b3c4d5e02", Role: domain.RoleTeacher}
	student      = domain.Requester{ID: "8f2c5d9e-4b1a-4c3e-9f7d-1a2b3c4d5e03", Role: domain.RoleStudent}
	student2     = domain.Requester{ID: "8f2c5d9e-4b1a-4c3e-9f7d-1a2b3c4d5e04", Role: domain.RoleStudent}
)

type fixture struct {
	store       *memory.Store
	quizzes     *app.QuizService
	submissions *app.SubmissionService
	feeds       *memory.FeedRegistry
}

func newFixture(store app.Store, mem *memory.Store) fixture {
	answerKeys := memory.NewAnswerKeyCache(memory.NewStoreLoader(mem), time.Minute)
	feeds := memory.NewFeedRegistry()
	return fixture{
		store:       mem,
		quizzes:     app.NewQuizService(store, answerKeys),
		submissions: app.NewSubmissionService(store, answerKeys, feeds),
		feeds:       feeds,
	}
}

func newMemoryFixture() fixture {
	mem := memory.NewStore()
	return newFixture(mem, mem)
}

func choices(correct ...bool) []domain.Choice {
	out := make([]domain.Choice, len(correct))
	for i, c := range correct {
		out[i] = domain.Choice{Text: string(rune('a' + i)), IsCorrect: c}
	}
	return out
}

func mustDraft(t *testing.T, f fixture) domain.Quiz {
	t.Helper()
	quiz, err := f.quizzes.CreateQuiz(context.Background(), teacher, domain.CreateQuizInput{Title: "Go basics"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func mustQuestion(t *testing.T, f fixture, quizID string, in domain.QuestionInput) domain.Question {
	t.Helper()
	q, err := f.quizzes.AddQuestion(context.Background(), teacher, quizID, in)
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	return q
}

func mustPublish(t *testing.T, f fixture, quizID string) {
	t.Helper()
	if _, err := f.quizzes.PublishQuiz(context.Background(), teacher, quizID); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
