package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-estate-auth"
	"github.com/stretchr/testify/assert"
)

func newTestAuther(provider auth.IdentityProvider) *auth.Auther {
	return auth.NewAuthenticator(provider, testConfig{
		signingKey:    "test-signing-key",
		tokenLifetime: 30,
		issuer:        "test-issuer",
		audience:      []string{"test-audience"},
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("Valid credentials", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", context.Background(), "alice", "password").
			Return(staticIdentity{id: "42", username: "alice", role: "user"}, nil)

		auther := newTestAuther(provider)

		identity, err := auther.Authenticate(context.Background(), "alice", "password")
		assert.NoError(t, err)
		assert.Equal(t, "42", identity.ID())
		provider.AssertExpectations(t)
	})

	t.Run("Invalid credentials", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", context.Background(), "alice", "wrong").
			Return(nil, auth.ErrInvalidCredentials)

		auther := newTestAuther(provider)

		identity, err := auther.Authenticate(context.Background(), "alice", "wrong")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Zero identity", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", context.Background(), "alice", "password").
			Return(staticIdentity{}, nil)

		auther := newTestAuther(provider)

		identity, err := auther.Authenticate(context.Background(), "alice", "password")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestLogin(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("VerifyIdentity", context.Background(), "alice", "password").
		Return(staticIdentity{id: "42", username: "alice", role: "user"}, nil)

	auther := newTestAuther(provider)

	token, err := auther.Login(context.Background(), "alice", "password")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auther.TokenService().Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, "user", claims.Role())
}

func TestSessionFromToken(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("VerifyIdentity", context.Background(), "alice", "password").
		Return(staticIdentity{id: "42", username: "alice", role: "admin"}, nil)

	auther := newTestAuther(provider)

	token, err := auther.Login(context.Background(), "alice", "password")
	assert.NoError(t, err)

	t.Run("Valid token", func(t *testing.T) {
		session, err := auther.SessionFromToken(token)
		assert.NoError(t, err)
		assert.Equal(t, "42", session.GetUserID())
		assert.Equal(t, "alice", session.GetUsername())
		assert.Equal(t, "admin", session.GetRole())
		assert.Equal(t, "test-issuer", session.GetIssuer())
		assert.NotNil(t, session.GetIssuedAt())
	})

	t.Run("Garbage token", func(t *testing.T) {
		session, err := auther.SessionFromToken("garbage")
		assert.Nil(t, session)
		assert.Error(t, err)
	})

	t.Run("Custom validator", func(t *testing.T) {
		called := false
		auther.WithTokenValidator(auth.TokenValidatorFunc(func(raw string) (auth.AuthClaims, error) {
			called = true
			return auther.TokenService().Validate(raw)
		}))

		_, err := auther.SessionFromToken(token)
		assert.NoError(t, err)
		assert.True(t, called)
	})
}
