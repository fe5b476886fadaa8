package auth

import (
	"context"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

type sessionKey struct{}

func ContextWithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the identity resolved by RequireUser. The second
// return is false on requests that never passed through the middleware.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(domain.Session)
	return sess, ok
}
