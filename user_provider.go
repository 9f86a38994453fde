package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// PersonStore is the narrow persistence surface the provider needs to
// resolve credentials.
type PersonStore interface {
	GetByLogin(ctx context.Context, login string) (*Person, error)
}

// PersonProvider resolves identities out of the person store. Unknown
// usernames and wrong passwords are indistinguishable to callers.
type PersonProvider struct {
	store  PersonStore
	logger Logger
}

// NewPersonProvider creates an IdentityProvider backed by a person store.
func NewPersonProvider(store PersonStore) *PersonProvider {
	return &PersonProvider{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (p *PersonProvider) WithLogger(logger Logger) *PersonProvider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// VerifyIdentity checks the given credentials against the stored hash and
// returns the matching identity.
func (p *PersonProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	person, err := p.store.GetByLogin(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		p.logger.Error("VerifyIdentity store lookup failed: %s", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up identity")
	}

	if err := ComparePasswordAndHash(password, person.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return NewIdentity(person), nil
}

// FindIdentityByUsername returns the identity for the given username
// without checking credentials.
func (p *PersonProvider) FindIdentityByUsername(ctx context.Context, username string) (Identity, error) {
	person, err := p.store.GetByLogin(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up identity")
	}
	return NewIdentity(person), nil
}
