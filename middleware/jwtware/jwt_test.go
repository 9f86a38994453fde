package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-estate-auth/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
	userID  string
	name    string
	role    string
}

func (s stubClaims) Subject() string  { return s.subject }
func (s stubClaims) UserID() string   { return s.userID }
func (s stubClaims) Username() string { return s.name }
func (s stubClaims) Role() string     { return s.role }

func (s stubClaims) HasRole(role string) bool { return s.role == role }

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
	tokens []string
}

func (v *stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	v.tokens = append(v.tokens, tokenString)
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func userClaims() stubClaims {
	return stubClaims{subject: "alice", userID: "42", name: "alice", role: "user"}
}

func newTestApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Use(jwtware.New(cfg))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(jwtware.AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.Username())
	})
	return app
}

func TestMiddlewareMissingToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: &stubValidator{claims: userClaims()},
		SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "missing or malformed JWT", string(body))
}

func TestMiddlewareValidToken(t *testing.T) {
	validator := &stubValidator{claims: userClaims()}
	app := newTestApp(jwtware.Config{
		TokenValidator: validator,
		SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer the-raw-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(body))

	require.Len(t, validator.tokens, 1)
	assert.Equal(t, "the-raw-token", validator.tokens[0])
}

func TestMiddlewareInvalidToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: &stubValidator{err: errors.New("token is expired")},
		SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer stale-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareRequiredRole(t *testing.T) {
	t.Run("Matching role", func(t *testing.T) {
		app := newTestApp(jwtware.Config{
			TokenValidator: &stubValidator{claims: userClaims()},
			SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
			RequiredRole:   "user",
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer token")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Wrong role", func(t *testing.T) {
		app := newTestApp(jwtware.Config{
			TokenValidator: &stubValidator{claims: userClaims()},
			SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
			RequiredRole:   "admin",
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer token")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	// Role membership is exact, admin does not satisfy a user gate.
	t.Run("Admin fails user gate", func(t *testing.T) {
		admin := stubClaims{subject: "root", userID: "1", name: "root", role: "admin"}
		app := newTestApp(jwtware.Config{
			TokenValidator: &stubValidator{claims: admin},
			SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
			RequiredRole:   "user",
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer token")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMiddlewareFilter(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: &stubValidator{claims: userClaims()},
		SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/protected"
		},
	})

	// Filter returning true skips the middleware; the handler then finds
	// no claims in locals.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMiddlewareTokenLookup(t *testing.T) {
	t.Run("Query", func(t *testing.T) {
		validator := &stubValidator{claims: userClaims()}
		app := newTestApp(jwtware.Config{
			TokenValidator: validator,
			SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
			TokenLookup:    "query:auth_token",
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?auth_token=qtoken", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"qtoken"}, validator.tokens)
	})

	t.Run("Cookie", func(t *testing.T) {
		validator := &stubValidator{claims: userClaims()}
		app := newTestApp(jwtware.Config{
			TokenValidator: validator,
			SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
			TokenLookup:    "cookie:jwt",
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "ctoken"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"ctoken"}, validator.tokens)
	})
}

func TestMiddlewareContextEnricher(t *testing.T) {
	type ctxKey struct{}

	app := fiber.New()
	app.Use(jwtware.New(jwtware.Config{
		TokenValidator: &stubValidator{claims: userClaims()},
		SigningKey:     jwtware.SigningKey{JWTAlg: "HS256", Key: []byte("secret")},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			return context.WithValue(ctx, ctxKey{}, claims.UserID())
		},
	}))
	app.Get("/protected", func(c *fiber.Ctx) error {
		id, _ := c.UserContext().Value(ctxKey{}).(string)
		return c.SendString(id)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer token")

	resp, err := app.Test(req)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "42", string(body))
}
