// Package auth is the identity and access-control layer of the estate
// listing application: password verification, JWT issuance, server side
// sessions, role gates, ownership checks, and the account lifecycle
// commands that tie them together.
//
// Authentication:
//   - Auther.Authenticate is the single credential-checking primitive.
//     Both the bearer-token flow (TokenService) and the interactive
//     session flow (SessionStore) consume its Identity, so a token and a
//     session for the same person are authorization equivalent.
//   - Passwords are hashed with Argon2id in PHC string format; the salt
//     and cost parameters travel inside the stored hash.
//
// Authorization:
//   - RequireRole enforces exact role membership (admin is not an
//     implicit superset of user). RequireOwner restricts mutation of a
//     person-owned resource to the account that created it. Both take
//     the Identity explicitly so they stay testable without a request
//     pipeline.
//
// Lifecycle:
//   - RegisterPersonHandler, UpdatePersonHandler, and DeletePersonHandler
//     orchestrate uniqueness checks, hash rotation, and avatar file
//     replacement inside repository transactions. Login uniqueness is
//     ultimately enforced by the storage layer; the handlers map that
//     conflict to ErrUsernameTaken.
package auth
