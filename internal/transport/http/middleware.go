package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

type ctxKey int

const (
	requesterKey ctxKey = iota
	accessTokenKey
)

const (
	accessCookie  = "token"
	refreshCookie = "refreshToken"
	refreshPath   = "/api/auth/refresh"
)

// Authenticator resolves access tokens to requesters.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (domain.Requester, bool, error)
}

// requestLogger attaches a request-scoped logrus entry and logs each request
// once it completes.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.IntoContext(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			}).Info("request completed")
		})
	}
}

// cors allows credentialed requests from origin. A "*" origin echoes the
// caller's Origin, since browsers reject a wildcard with credentials.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			allowed := origin
			if origin == "*" {
				allowed = r.Header.Get("Origin")
				h.Add("Vary", "Origin")
			}
			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Expose-Headers", "X-Token-Expiring-Soon")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate requires a valid access token from the Authorization header
// or the token cookie.
func authenticate(auth Authenticator, errs errorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFrom(r)
			requester, expiringSoon, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				errs.write(w, r, err)
				return
			}
			if expiringSoon {
				w.Header().Set("X-Token-Expiring-Soon", "true")
			}

			ctx := context.WithValue(r.Context(), requesterKey, requester)
			ctx = context.WithValue(ctx, accessTokenKey, token)
			ctx = logger.IntoContext(ctx, logger.WithContext(ctx).WithField("user_id", requester.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRole must run after authenticate.
func requireRole(errs errorResponder, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester := requesterFrom(r.Context())
			for _, role := range roles {
				if requester.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.write(w, r, domain.Forbidden(fmt.Sprintf("user role %s is not authorized to access this route", requester.Role)))
		})
	}
}

func accessTokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(accessCookie); err == nil {
		return c.Value
	}
	// Browsers cannot set headers on a websocket handshake.
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func requesterFrom(ctx context.Context) domain.Requester {
	r, _ := ctx.Value(requesterKey).(domain.Requester)
	return r
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(accessTokenKey).(string)
	return t
}
