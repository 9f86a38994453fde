package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey struct{ name string }

var identityContextKey = &contextKey{"auth:identity"}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// IdentityFromLocals retrieves the identity a middleware stored in the
// request locals. It accepts either an Identity or raw AuthClaims.
func IdentityFromLocals(c *fiber.Ctx, key string) (Identity, bool) {
	if key == "" {
		key = "user"
	}

	switch value := c.Locals(key).(type) {
	case Identity:
		return value, true
	case AuthClaims:
		return IdentityFromClaims(value), true
	}

	return nil, false
}
