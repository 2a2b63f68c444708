package server

import (
	"context"
	"net/http"

	"ethics-review-service/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorFromHeaders extracts the authenticated actor identity the auth layer
// placed on the request. Authentication itself is external; the workflow
// only consumes id + role and enforces role gating in the engine.
func ActorFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get("X-Actor-Id")
		actorRole := models.Role(r.Header.Get("X-Actor-Role"))

		if actorID == "" || actorRole == "" {
			writeError(w, http.StatusUnauthorized, "MISSING_ACTOR", "X-Actor-Id and X-Actor-Role headers are required")
			return
		}
		if !actorRole.IsValid() {
			writeError(w, http.StatusBadRequest, "UNKNOWN_ROLE", "unrecognized actor role: "+string(actorRole))
			return
		}

		actor := models.Actor{ID: actorID, Role: actorRole}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorContextKey, actor)))
	})
}

func actorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorContextKey).(models.Actor)
	return actor
}
