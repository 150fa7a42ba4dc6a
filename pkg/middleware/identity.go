package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"
	"campusbook/pkg/model"
)

const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"

	actorKey contextKey = "actor"
)

// Identity reads the actor asserted by the gateway. Requests without
// identity headers continue anonymously; handlers that mutate state reject
// them. Malformed identity is rejected here and never replaced by a default.
func Identity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(ActorIDHeader))
			role := model.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(ActorRoleHeader))))

			if id == "" && role == "" {
				next.ServeHTTP(w, r)
				return
			}

			if id == "" || len(id) > 100 || !role.Valid() {
				log.Warn("Rejected malformed actor identity",
					"request_id", RequestIDFromContext(r.Context()),
					"actor_id", id,
					"role", role,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid actor identity"))
				return
			}

			ctx := WithActor(r.Context(), model.Actor{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(model.Actor)
	return actor, ok
}

// RequireActor returns the authenticated actor or an UNAUTHORIZED error.
func RequireActor(r *http.Request) (model.Actor, error) {
	actor, ok := ActorFromContext(r.Context())
	if !ok || actor.ID == "" {
		return model.Actor{}, apperrors.Unauthorized("Actor identity is required")
	}
	return actor, nil
}
