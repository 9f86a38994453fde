package auth

import (
	"context"
	"reflect"
)

type Auther struct {
	provider       IdentityProvider
	signingKey     []byte
	tokenLifetime  int
	issuer         string
	audience       []string
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenLifetime(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:      provider,
		signingKey:    []byte(opts.GetSigningKey()),
		tokenLifetime: opts.GetTokenLifetime(),
		audience:      opts.GetAudience(),
		issuer:        opts.GetIssuer(),
		logger:        defLogger{},
		tokenService:  tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenLifetime,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Authenticate verifies the given credentials and returns the identity that
// matched them. This is the single credential-checking primitive; both the
// token and the session flow go through it.
func (s *Auther) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Authenticate identity is nil or zero value")
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// Login authenticates the credentials and issues a signed bearer token for
// the resulting identity.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Error("Login authenticate error: %s", err)
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error: %s", err)
		return "", err
	}

	return token, nil
}

func (s *Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %s", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %s", err)
		return nil, err
	}

	return session, nil
}
