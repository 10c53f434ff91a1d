package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserContext is the authenticated principal available to handlers
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// SetUserInContext attaches the authenticated user to a request context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or an error when the
// request never passed authentication
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return user, nil
}

// HasRole reports whether the user carries the given role
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
