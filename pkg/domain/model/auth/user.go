package auth

import "context"

// AnonymousUserID is the user every request runs as when authentication is disabled
const AnonymousUserID int64 = 1

// User is the authenticated principal of a request
type User struct {
	ID   int64
	Name string
}

// NewAnonymousUser returns the built-in administrator used in no-auth mode
func NewAnonymousUser() *User {
	return &User{ID: AnonymousUserID, Name: "administrator"}
}

type ctxUserKey struct{}

// ContextWithUser returns a new context carrying user
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext returns the user of the request, falling back to the anonymous user
func UserFromContext(ctx context.Context) *User {
	if user, ok := ctx.Value(ctxUserKey{}).(*User); ok && user != nil {
		return user
	}
	return NewAnonymousUser()
}
