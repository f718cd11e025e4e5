package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the HttpOnly cookie that carries the access token.
const CookieName = "token"

type contextKey string

const userIDKey contextKey = "userID"

var errNoToken = errors.New("auth: no token")

// RequireAuth rejects requests without a valid token with 401 and otherwise
// stores the user id in the request context.
//
// The token is read from "Authorization: Bearer <jwt>" first, then from the
// "token" cookie, so both API clients and the browser frontend work.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or (0, false) for an
// anonymous request.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

func extractUserID(r *http.Request, tokens *TokenService) (int64, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return 0, errNoToken
		}
		return tokens.Validate(strings.TrimSpace(token))
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return 0, errNoToken
	}
	return tokens.Validate(cookie.Value)
}
