package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// RequestLogger logs one line per request through logrus.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.WithFields(log.Fields{
				"component":   "http",
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			}).Info("request completed")
		})
	}
}

// accessToken reads the token from the access_token cookie, falling back to
// an Authorization: Bearer header.
func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// Authenticate attaches the session user to the request context when the
// request carries a valid access token. Anonymous requests pass through.
func Authenticate(source ports.SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := source.GetSession(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if user != nil {
				r = r.WithContext(session.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.UserFrom(r.Context()) == nil {
			WriteError(w, r, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
