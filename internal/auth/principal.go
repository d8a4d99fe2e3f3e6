package auth

import "context"

// Principal is the signed-in user a request acts for.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// LocalPrincipal is used for every request when authentication is disabled.
var LocalPrincipal = Principal{UserID: "local", Email: "local@agentboard"}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the request's principal; ok is false for anonymous
// requests.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// UserID is the principal's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	p, _ := FromContext(ctx)
	return p.UserID
}
