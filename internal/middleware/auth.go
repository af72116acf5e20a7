package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mroshb/friends_api/internal/security"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
)

// CookieName carries the session token
const CookieName = "users_access_token"

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
)

type TokenDecoder interface {
	DecodeToken(token string, purpose security.Purpose) (*security.Claims, error)
}

// Authenticate rejects requests without a valid session token and stores
// the caller's identity in the request context.
func Authenticate(tokens TokenDecoder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "authentication required")
				return
			}

			claims, err := tokens.DecodeToken(token, security.PurposeSession)
			if err != nil {
				logger.Debug("Rejected session token", "error", err, "path", r.URL.Path)
				if errors.HasCode(err, errors.ErrCodeExpiredToken) {
					unauthorized(w, "token expired")
					return
				}
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.UserID, claims.Email)))
		})
	}
}

// TokenFromRequest returns the session cookie, falling back to a Bearer header
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

// UserIDFromContext returns the authenticated user's ID
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok && id != 0
}

// EmailFromContext returns the authenticated user's email
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// WithIdentity stores an authenticated caller in ctx
func WithIdentity(ctx context.Context, userID uint, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
