package auth

// RequireAuthenticated rejects requests that carry no identity.
func RequireAuthenticated(identity Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	return nil
}

// RequireRole checks that the identity holds one of the given roles.
// Membership is exact, there is no role hierarchy: an admin does not pass a
// user-only gate.
func RequireRole(identity Identity, roles ...UserRole) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	for _, role := range roles {
		if identity.Role() == string(role) {
			return nil
		}
	}

	return ErrForbidden
}
