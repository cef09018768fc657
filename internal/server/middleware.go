package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agroproposals/internal"
	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyIdentity contextKey = "identity"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(started)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode)).Inc()
			s.metrics.HTTPDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
		}
	})
}

// LoadIdentity resolves the caller from the access token cookie. Any failure
// while doing so leaves the request logged out; it is never surfaced as an
// error page.
func (s *Service) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.identityFromRequest(r)
		switch {
		case errors.Is(err, http.ErrNoCookie):
		case err != nil:
			s.logger.WithError(err).WithField("path", r.URL.Path).Warn("could not resolve identity, treating request as logged out")
			s.clearAccessTokenCookie(w)
		default:
			s.logger.WithFields(logrus.Fields{
				"user_id": identity.ID,
				"email":   identity.Email,
			}).Debug("authenticated user")
			r = r.WithContext(context.WithValue(r.Context(), contextKeyIdentity, identity))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth sends logged out callers to the login page and brings them back
// afterwards.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFromContext(r.Context()).Authenticated() {
			target := r.URL.Path
			if r.Method == http.MethodGet && r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			s.setRedirectCookie(w, target, time.Minute*5)
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFromContext(r.Context()).Authenticated() {
			s.writeJSONError(w, types.ErrNotAuthenticated)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) identityFromRequest(r *http.Request) (*types.Identity, error) {
	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return nil, err
	}

	var accessToken string
	err = s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken)
	if err != nil {
		return nil, err
	}

	return s.verifier.Verify(r.Context(), accessToken)
}

func identityFromContext(ctx context.Context) *types.Identity {
	identity, _ := ctx.Value(contextKeyIdentity).(*types.Identity)
	return identity
}
