package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

func TestStoreRunInTxRollsBack(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.CreateQuiz(ctx, &domain.Quiz{ID: "quiz-1", OwnerID: "t1"})
	_ = store.CreateQuestion(ctx, &domain.Question{ID: "q1", QuizID: "quiz-1"})

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Store) error {
		if _, err := tx.DeleteQuestionsByQuiz(ctx, "quiz-1"); err != nil {
			return err
		}
		if err := tx.DeleteQuiz(ctx, "quiz-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected tx error, got %v", err)
	}

	if _, err := store.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("expected quiz to survive rollback: %v", err)
	}
	if n, _ := store.CountQuestions(ctx, "quiz-1"); n != 1 {
		t.Fatalf("expected question to survive rollback, got %d", n)
	}
}

func TestStoreRunInTxCommits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.CreateQuiz(ctx, &domain.Quiz{ID: "quiz-1", OwnerID: "t1"})

	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Store) error {
		return tx.DeleteQuiz(ctx, "quiz-1")
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}
	if _, err := store.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected quiz gone, got %v", err)
	}
}

func TestStoreSubmissionUniqueUnderRace(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, dupes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.CreateSubmission(ctx, &domain.Submission{
				ID:     string(rune('a' + i)),
				QuizID: "quiz-1",
				UserID: "s1",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrAlreadySubmitted):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 1 || dupes != attempts-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", attempts-1, ok, dupes)
	}
}

func TestStoreListsInInsertionOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		_ = store.CreateQuestion(ctx, &domain.Question{ID: id, QuizID: "quiz-1"})
	}

	questions, _ := store.ListQuestions(ctx, "quiz-1")
	got := ""
	for _, q := range questions {
		got += q.ID
	}
	if got != "cab" {
		t.Fatalf("expected insertion order cab, got %s", got)
	}
}

func TestStoreRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err := store.CreateUser(ctx, &domain.User{ID: "u2", Email: "a@example.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}
