package auth

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/goliatone/go-errors"
)

const (
	sessionKeyUserID  = "user_id"
	sessionKeySubject = "subject"
	sessionKeyRole    = "role"
)

// SessionStore manages server side sessions for the interactive flow.
// Authentication state lives on the server; the browser only carries the
// opaque session cookie the middleware issues.
type SessionStore struct {
	store  *fibersession.Store
	logger Logger
}

// NewSessionStore creates a session store backed by the fiber session
// middleware. Pass a config to control cookie name, expiry, and storage.
func NewSessionStore(config ...fibersession.Config) *SessionStore {
	return &SessionStore{
		store:  fibersession.New(config...),
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (s *SessionStore) WithLogger(logger Logger) *SessionStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Login records the identity in a fresh server side session.
func (s *SessionStore) Login(c *fiber.Ctx, identity Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	sess, err := s.store.Get(c)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open session")
	}

	sess.Set(sessionKeyUserID, identity.ID())
	sess.Set(sessionKeySubject, identity.Username())
	sess.Set(sessionKeyRole, identity.Role())

	if err := sess.Save(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to save session")
	}

	return nil
}

// Current returns the identity recorded in the request session, if any.
func (s *SessionStore) Current(c *fiber.Ctx) (Identity, bool) {
	sess, err := s.store.Get(c)
	if err != nil {
		s.logger.Error("SessionStore current failed to open session: %s", err)
		return nil, false
	}

	userID, _ := sess.Get(sessionKeyUserID).(string)
	if userID == "" {
		return nil, false
	}

	username, _ := sess.Get(sessionKeySubject).(string)
	role, _ := sess.Get(sessionKeyRole).(string)

	return claimsIdentity{
		id:       userID,
		username: username,
		role:     role,
	}, true
}

// Logout destroys the request session. Calling it without an active
// session is a no-op.
func (s *SessionStore) Logout(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		s.logger.Error("SessionStore logout failed to open session: %s", err)
		return nil
	}

	if sess.Fresh() {
		return nil
	}

	if err := sess.Destroy(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to destroy session")
	}

	return nil
}
