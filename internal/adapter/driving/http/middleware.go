package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/cors"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for the allowed origins and answers
// preflight requests directly. "*" allows every origin; an empty list
// disables CORS handling.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}).Handler(next)
}

type identityKey struct{}

var errEmptyIdentity = errors.New("identity resolver returned an empty user id")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth middleware.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok && id.UserID != ""
}

// authMiddleware resolves the caller identity before next runs. Requests
// without an Authorization header are rejected without contacting the
// identity service.
func authMiddleware(resolver driven.IdentityResolver, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			writeAuthError(w, logger, r, driven.Unauthenticated())
			return
		}

		id, err := resolver.Resolve(r.Context(), header)
		if err != nil {
			writeAuthError(w, logger, r, err)
			return
		}
		if id.UserID == "" {
			writeAuthError(w, logger, r, driven.AuthServiceUnavailable(errEmptyIdentity))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// authMessages are the client-facing messages per auth text code.
var authMessages = map[string]string{
	driven.TextCodeUnauthenticated:        "No token provided",
	driven.TextCodeInvalidToken:           "Invalid access token",
	driven.TextCodeAuthServiceUnavailable: "Auth service unavailable",
}

func writeAuthError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		status = rich.Code
		if m, ok := authMessages[rich.TextCode]; ok {
			message = m
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Warn("auth rejected request", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Debug("auth rejected request", "path", r.URL.Path, "status", status)
	}

	writeError(w, status, message)
}
