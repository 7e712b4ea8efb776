package auth

import "context"

type contextKey struct{}

// Identity is the signed-in user attached to a request by the access gate.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Caller returns the request's identity, or nil for anonymous requests.
func Caller(ctx context.Context) *Identity {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &id
}

func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.UserID
}
