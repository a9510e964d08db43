package session

import (
	"context"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the user attached by WithUser, or nil.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKey{}).(*domain.User)
	return user
}
