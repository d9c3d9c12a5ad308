package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quizhub-service/internal/domain"
)

const seedPassword = "password123"

// NewSeedCmd fills the configured database with demo accounts and a
// published sample quiz.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users and a sample quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			svc, err := newServices(cfg, b)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), svc, log)
		},
	}
}

func seed(ctx context.Context, svc services, log *logrus.Logger) error {
	accounts := []domain.RegisterInput{
		{Name: "Teacher User", Email: "teacher@example.com", Password: seedPassword, Role: domain.RoleTeacher},
		{Name: "Student User", Email: "student@example.com", Password: seedPassword, Role: domain.RoleStudent},
		{Name: "Admin User", Email: "admin@example.com", Password: seedPassword, Role: domain.RoleAdmin},
	}

	var teacher domain.User
	for _, in := range accounts {
		session, err := svc.auth.Register(ctx, in)
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			log.WithField("email", in.Email).Info("seed user already exists, skipping")
			continue
		case err != nil:
			return fmt.Errorf("seed %s: %w", in.Email, err)
		}
		if in.Role == domain.RoleTeacher {
			teacher = session.User
		}
	}

	if teacher.ID == "" {
		log.Info("sample quiz skipped, teacher already seeded")
		return nil
	}

	owner := teacher.Requester()
	limit := 10
	quiz, err := svc.quizzes.CreateQuiz(ctx, owner, domain.CreateQuizInput{
		Title:       "JavaScript Basics",
		Description: "Test your knowledge of JavaScript fundamentals",
		TimeLimit:   &limit,
	})
	if err != nil {
		return fmt.Errorf("seed quiz: %w", err)
	}

	questions := []domain.QuestionInput{
		{
			Text: "Which of the following is not a JavaScript data type?",
			Choices: []domain.Choice{
				{Text: "String"}, {Text: "Boolean"}, {Text: "Float", IsCorrect: true}, {Text: "Symbol"},
			},
			Points: 1,
		},
		{
			Text: "Which of these declare a block-scoped variable?",
			Choices: []domain.Choice{
				{Text: "var"}, {Text: "let", IsCorrect: true}, {Text: "const", IsCorrect: true}, {Text: "global"},
			},
			IsMultipleChoice: true,
			Points:           2,
		},
		{
			Text: "What does the === operator compare?",
			Choices: []domain.Choice{
				{Text: "Only values"}, {Text: "Values and types", IsCorrect: true}, {Text: "Only types"},
			},
			Points: 1,
		},
	}
	for _, in := range questions {
		if _, err := svc.quizzes.AddQuestion(ctx, owner, quiz.ID, in); err != nil {
			return fmt.Errorf("seed question: %w", err)
		}
	}
	if _, err := svc.quizzes.PublishQuiz(ctx, owner, quiz.ID); err != nil {
		return fmt.Errorf("publish sample quiz: %w", err)
	}

	log.WithFields(logrus.Fields{
		"quiz_id":  quiz.ID,
		"password": seedPassword,
	}).Info("database seeded")
	return nil
}
