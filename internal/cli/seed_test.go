package cli

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"quizhub-service/internal/config"
	"quizhub-service/internal/domain"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)

	var cfg config.Config
	cfg.Auth.JWTSecret = "access"
	cfg.Auth.JWTRefreshSecret = "refresh"
	cfg.Auth.BcryptCost = 4

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.Close()
	svc, err := newServices(cfg, b)
	if err != nil {
		t.Fatalf("services: %v", err)
	}

	if err := seed(ctx, svc, log); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seed(ctx, svc, log); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	session, err := svc.auth.Login(ctx, "student@example.com", seedPassword)
	if err != nil {
		t.Fatalf("login seeded student: %v", err)
	}
	quizzes, err := svc.quizzes.ListQuizzes(ctx, session.User.Requester())
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 1 || !quizzes[0].IsPublished {
		t.Fatalf("expected one published sample quiz, got %+v", quizzes)
	}

	detail, err := svc.quizzes.GetQuiz(ctx, session.User.Requester(), quizzes[0].ID)
	if err != nil || len(detail.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d (%v)", len(detail.Questions), err)
	}
	if session.User.Role != domain.RoleStudent {
		t.Fatalf("unexpected role %q", session.User.Role)
	}
}
