package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventbook/internal/config"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type ctxKey struct{}

// TokenParser validates a bearer token and returns its user id.
type TokenParser interface {
	ParseToken(raw string) (int64, error)
}

func actorFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

// Authenticate accepts anonymous requests, as the booking endpoints do, but
// rejects a request whose bearer token does not validate. A valid token
// binds the request to its user id.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "unsupported authorization scheme")
				return
			}
			id, err := tokens.ParseToken(strings.TrimSpace(raw))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// Logger logs each request at start (debug) and completion, the latter at a
// level derived from the response status.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			attrs := []slog.Attr{
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("client_ip", r.RemoteAddr),
			}
			if clientID := r.Header.Get("X-Request-Id"); clientID != "" {
				attrs = append(attrs, slog.String("client_request_id", clientID))
			}
			logger.LogAttrs(r.Context(), slog.LevelDebug, "Request started", attrs...)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs = append(attrs,
				slog.Int("status_code", status),
				slog.Duration("duration", time.Since(start)),
			)
			if size := ww.BytesWritten(); size > 0 {
				attrs = append(attrs, slog.Int("response_size", size))
			}
			logger.LogAttrs(r.Context(), level, "Request completed", attrs...)
		})
	}
}

// CORS allows the configured browser origins.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: cfg.AllowMethods,
		AllowedHeaders: cfg.AllowHeaders,
	}).Handler
}
