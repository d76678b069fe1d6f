package session

import (
	"context"

	"github.com/newsblog/backend/internal/db"
)

type contextKey string

const userContextKey contextKey = "session_user"

// WithUser stores the session's user on the context.
func WithUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the session user, or nil outside a session-guarded
// handler.
func UserFromContext(ctx context.Context) *db.User {
	user, ok := ctx.Value(userContextKey).(*db.User)
	if !ok {
		return nil
	}
	return user
}
