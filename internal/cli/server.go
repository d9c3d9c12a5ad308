package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/config"
	transport "quizhub-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type services struct {
	auth        *app.AuthService
	quizzes     *app.QuizService
	submissions *app.SubmissionService
}

func newServices(cfg config.Config, b *backend) (services, error) {
	tokens, err := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTRefreshSecret,
		config.TTLDuration(cfg.Auth.AccessTTL, 7*24*time.Hour),
		config.TTLDuration(cfg.Auth.RefreshTTL, 30*24*time.Hour),
	)
	if err != nil {
		return services{}, err
	}
	return services{
		auth:        app.NewAuthService(b.store, tokens, b.tokens, auth.NewBcryptHasher(cfg.Auth.BcryptCost)),
		quizzes:     app.NewQuizService(b.store, b.answerKeys),
		submissions: app.NewSubmissionService(b.store, b.answerKeys, b.feeds),
	}, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	svc, err := newServices(cfg, b)
	if err != nil {
		return err
	}

	handler := transport.NewRouter(transport.RouterConfig{
		Auth:        svc.auth,
		Quizzes:     svc.quizzes,
		Submissions: svc.submissions,
		Logger:      log,
		Environment: cfg.Server.Env,
		CORSOrigin:  cfg.Server.CORSOrigin,
	})

	readTimeout := config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		// no WriteTimeout: live results websockets stay open
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Server.Port,
			"env":  cfg.Server.Env,
		}).Info("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
