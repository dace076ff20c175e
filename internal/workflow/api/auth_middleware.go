package api

import (
	"context"
	"net/http"
	"strings"

	"fuelserve/internal/shared/jwt"
	"fuelserve/internal/shared/util"
)

type contextKey string

const (
	IdentityIDKey contextKey = "identity_id"
	RoleKey       contextKey = "role"
)

// AuthMiddleware resolves the caller's identity from the bearer token. It
// only authenticates; role gating happens per operation once the worker
// profile is resolved.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			util.WriteJSONError(w, "UNAUTHORIZED", "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.WriteJSONError(w, "UNAUTHORIZED", "invalid Authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := jwt.ParseToken(h.secret, parts[1])
		if err != nil {
			util.WriteJSONError(w, "UNAUTHORIZED", "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityIDKey, claims.IdentityID)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) (identityID, role string) {
	identityID, _ = ctx.Value(IdentityIDKey).(string)
	role, _ = ctx.Value(RoleKey).(string)
	return identityID, role
}
