package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// RouterConfig carries everything the REST API needs.
type RouterConfig struct {
	Auth        *app.AuthService
	Quizzes     *app.QuizService
	Submissions *app.SubmissionService
	Logger      *logrus.Logger
	Environment string
	CORSOrigin  string
}

func (c RouterConfig) production() bool {
	return c.Environment == "production"
}

// NewRouter mounts the API under /api plus a /health probe.
func NewRouter(cfg RouterConfig) http.Handler {
	errs := errorResponder{exposeDetail: !cfg.production()}
	authH := NewAuthHandler(cfg.Auth, errs, cfg.production())
	quizH := NewQuizHandler(cfg.Quizzes, errs)
	questionH := NewQuestionHandler(cfg.Quizzes, errs)
	submissionH := NewSubmissionHandler(cfg.Submissions, errs)
	stream := NewResultsStream(cfg.Submissions, errs, cfg.CORSOrigin)

	authed := authenticate(cfg.Auth, errs)
	teacher := requireRole(errs, domain.RoleTeacher)
	student := requireRole(errs, domain.RoleStudent)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"message":     "server is running",
			"environment": cfg.Environment,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/refresh", authH.Refresh)
			r.With(authed).Get("/logout", authH.Logout)
			r.With(authed).Get("/me", authH.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(authed)

			r.Route("/quizzes", func(r chi.Router) {
				r.Get("/", quizH.List)
				r.With(teacher).Post("/", quizH.Create)

				r.Route("/{quizId}", func(r chi.Router) {
					r.Get("/", quizH.Get)
					r.With(teacher).Put("/", quizH.Update)
					r.With(teacher).Delete("/", quizH.Delete)
					r.With(teacher).Put("/publish", quizH.Publish)

					r.Get("/questions", questionH.List)
					r.With(teacher).Post("/questions", questionH.Add)
					r.With(student).Post("/submit", submissionH.Submit)
					r.With(teacher).Get("/results", submissionH.Results)
					r.With(teacher).Get("/results/live", stream.Serve)
				})
			})

			r.Route("/questions/{id}", func(r chi.Router) {
				r.Get("/", questionH.Get)
				r.With(teacher).Put("/", questionH.Update)
				r.With(teacher).Delete("/", questionH.Delete)
			})

			r.Get("/submissions", submissionH.Mine)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("route not found: %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
	})
	return r
}
