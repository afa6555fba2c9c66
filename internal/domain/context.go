package domain

import (
	"context"

	"github.com/google/uuid"
)

// User is the authenticated principal attached to a request context.
// Token issuance lives outside this service; only verified claims travel here.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string // "customer" or "admin"
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom extracts the authenticated user from the context.
func UserFrom(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey).(User)
	return user, ok
}
