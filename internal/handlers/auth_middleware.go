package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey int

const (
	claimsKey contextKey = iota
	serviceKey
)

/*
Authenticates a request by a bearer access token, putting its claims into the
request context. An apikey header, when sent, must match the service key; on
its own it authenticates a service call, next to a bearer token the token's
user is the acting identity.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("apikey")
		if key != "" && (h.ServiceKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.ServiceKey)) != 1) {
			sendError(w, CodeInvalidAPIKey, "Invalid API key", http.StatusUnauthorized)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if key != "" {
				ctx := context.WithValue(r.Context(), serviceKey, true)
				next(w, r.WithContext(ctx))
				return
			}
			sendError(w, CodeUnauthorized, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			sendError(w, CodeUnauthorized, "Invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims, err := h.Tokens.Parse(tokenString)
		if err != nil {
			sendError(w, CodeUnauthorized, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func claimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// UserIDFromContext returns the authenticated user id, or "" for service
// callers and anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if claims := claimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

func isServiceCall(ctx context.Context) bool {
	ok, _ := ctx.Value(serviceKey).(bool)
	return ok
}
