package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/domain"
	pgstore "quizhub-service/internal/infra/postgres"
	pgmigrations "quizhub-service/internal/infra/postgres/migrations"
	infraredis "quizhub-service/internal/infra/redis"
)

func TestQuizLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := pgstore.NewStore(db)
	answerKeys := infraredis.NewAnswerKeyCache(redisClient, pgstore.NewAnswerKeyLoader(pool), 5*time.Minute)
	feeds := infraredis.NewFeedRegistry(redisClient)
	tokens, err := auth.NewTokenManager("access", "refresh", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	authSvc := app.NewAuthService(store, tokens, infraredis.NewTokenStore(redisClient), auth.NewBcryptHasher(4))
	quizzes := app.NewQuizService(store, answerKeys)
	submissions := app.NewSubmissionService(store, answerKeys, feeds)

	teacher := registerUser(t, ctx, authSvc, "teacher@example.com", domain.RoleTeacher)
	student := registerUser(t, ctx, authSvc, "student@example.com", domain.RoleStudent)
	if _, err := authSvc.Register(ctx, domain.RegisterInput{Name: "Dup", Email: "teacher@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected unique email violation, got %v", err)
	}

	quiz, err := quizzes.CreateQuiz(ctx, teacher, domain.CreateQuizInput{Title: "Integration"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	q1, err := quizzes.AddQuestion(ctx, teacher, quiz.ID, domain.QuestionInput{
		Text:    "2 + 2?",
		Choices: []domain.Choice{{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	q2, err := quizzes.AddQuestion(ctx, teacher, quiz.ID, domain.QuestionInput{
		Text:             "Even numbers?",
		Choices:          []domain.Choice{{Text: "2", IsCorrect: true}, {Text: "3"}, {Text: "4", IsCorrect: true}},
		IsMultipleChoice: true,
		Points:           3,
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := quizzes.PublishQuiz(ctx, teacher, quiz.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	in := domain.SubmitInput{
		Answers: []domain.Answer{
			{QuestionID: q1.ID, SelectedChoices: []int{1}},
			{QuestionID: q2.ID, SelectedChoices: []int{0}},
		},
		StartedAt: time.Now().Add(-2 * time.Minute),
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []domain.SubmissionResult
		errs    []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := submissions.Submit(ctx, student, quiz.ID, in)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, res)
		}()
	}
	wg.Wait()

	if len(results) != 1 || len(errs) != 1 || !errors.Is(errs[0], domain.ErrConflict) {
		t.Fatalf("expected one success and one conflict, got results=%d errs=%v", len(results), errs)
	}
	if res := results[0]; res.Score != 1 || res.MaxScore != 4 || res.Percentage != 25 {
		t.Fatalf("unexpected score %+v", res)
	}

	quizResults, err := submissions.Results(ctx, teacher, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if quizResults.Stats.Count != 1 || quizResults.Stats.HighestScore != 1 {
		t.Fatalf("unexpected stats %+v", quizResults.Stats)
	}
	if len(quizResults.Submissions[0].Answers) != 2 {
		t.Fatalf("answers must round-trip through jsonb, got %+v", quizResults.Submissions[0].Answers)
	}

	if err := quizzes.DeleteQuiz(ctx, teacher, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("quiz should be gone, got %v", err)
	}
	if n, _ := store.CountQuestions(ctx, quiz.ID); n != 0 {
		t.Fatalf("questions should be gone, got %d", n)
	}
	if exists, _ := redisClient.Exists(ctx, "quiz:"+quiz.ID+":answer_key").Result(); exists != 0 {
		t.Fatalf("answer key cache should be invalidated")
	}
}

func registerUser(t *testing.T, ctx context.Context, svc *app.AuthService, email string, role domain.Role) domain.Requester {
	t.Helper()
	session, err := svc.Register(ctx, domain.RegisterInput{Name: string(role), Email: email, Password: "secret1", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return session.User.Requester()
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
