package auth

import "strconv"

// Owned is implemented by records that belong to a single account.
type Owned interface {
	GetOwnerID() int64
}

// RequireOwner checks that the identity owns the resource. The check runs
// after the resource has been loaded, so a missing resource surfaces as not
// found rather than forbidden.
func RequireOwner(identity Identity, resource Owned) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if resource == nil {
		return ErrRecordNotFound
	}

	callerID, err := strconv.ParseInt(identity.ID(), 10, 64)
	if err != nil {
		return ErrForbidden
	}

	if callerID != resource.GetOwnerID() {
		return ErrForbidden
	}

	return nil
}
