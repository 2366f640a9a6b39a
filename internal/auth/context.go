package auth

import "context"

// contextKey is a private type so context values cannot collide with other
// packages.
type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
)

// WithSession returns a context carrying the authenticated user's identity.
func WithSession(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, emailKey, claims.Email)
}

// UserID extracts the authenticated user ID from the context, or "" if the
// context carries no session.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Email extracts the authenticated email from the context, or "".
func Email(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}
