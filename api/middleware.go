/*
middleware.go - Authentication, role guard and request logging

PURPOSE:
  Every /api route runs as an actor. authenticate resolves the bearer token
  into a lifecycle.Actor and stores it in the request context; handlers read
  it back with ActorFrom. requireRole short-circuits routes that only one
  role may reach.

MIDDLEWARE ORDER (see server.go):
  RequestID → Recoverer → requestLogger → CORS → authenticate → [requireRole]

SEE ALSO:
  - auth/auth.go: token format
  - server.go:    where these are mounted
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/warp/hostel-leave/auth"
	"github.com/warp/hostel-leave/lifecycle"
)

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor lifecycle.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by authenticate.
func ActorFrom(ctx context.Context) (lifecycle.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(lifecycle.Actor)
	return actor, ok
}

// authenticate rejects requests without a valid bearer token with 401.
func authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := auth.FromHeader(secret, r.Header.Get("Authorization"))
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrMissingToken) {
					msg = "Missing bearer token"
				}
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msg, Kind: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// requireRole lets through only actors with the given role.
func requireRole(role lifecycle.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok || actor.Role != role {
				writeJSON(w, http.StatusForbidden, ErrorResponse{
					Error: "This action requires the " + role.String() + " role",
					Kind:  string(lifecycle.KindForbidden),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			switch {
			case status >= 500:
				logger.Error("http request", fields...)
			case status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
