package auth

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyEmail is the key for the authenticated user's email in the context
	ContextKeyEmail ContextKey = "email"
	// ContextKeyToken is the key for the bearer token in the context
	ContextKeyToken ContextKey = "token"
)

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, email, token string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyEmail, email)
	return context.WithValue(ctx, ContextKeyToken, token)
}

// GetEmail retrieves the authenticated user's email from the request context.
func GetEmail(r *http.Request) string {
	if email, ok := r.Context().Value(ContextKeyEmail).(string); ok {
		return email
	}
	return ""
}

// GetToken retrieves the bearer token the request was authenticated with.
func GetToken(r *http.Request) string {
	if token, ok := r.Context().Value(ContextKeyToken).(string); ok {
		return token
	}
	return ""
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
