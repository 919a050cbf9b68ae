package auth

import "context"

type ctxKey struct{}

// WithUser stores the session user in ctx.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the session user attached by the middleware.
func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	u, ok := ctx.Value(ctxKey{}).(*SessionUser)
	return u, ok && u != nil
}
