package auth

import "strconv"

// PersonIdentity adapts a Person into the Identity interface. It copies
// the login into the subject name and the role verbatim.
type PersonIdentity struct {
	person *Person
}

// NewIdentity returns an Identity adapter for the provided person.
func NewIdentity(person *Person) Identity {
	if person == nil {
		return nil
	}
	return PersonIdentity{person: person}
}

// ID returns the person's numeric id as a string.
func (p PersonIdentity) ID() string {
	if p.person == nil {
		return ""
	}
	return strconv.FormatInt(p.person.ID, 10)
}

// Username returns the person's login.
func (p PersonIdentity) Username() string {
	if p.person == nil {
		return ""
	}
	return p.person.Login
}

// Role returns the person's role as a string.
func (p PersonIdentity) Role() string {
	if p.person == nil {
		return ""
	}
	return string(p.person.Role)
}

type claimsIdentity struct {
	id       string
	username string
	role     string
}

func (c claimsIdentity) ID() string       { return c.id }
func (c claimsIdentity) Username() string { return c.username }
func (c claimsIdentity) Role() string     { return c.role }

// IdentityFromClaims projects validated token claims back into the
// Identity shape consumed by the role and ownership guards.
func IdentityFromClaims(claims AuthClaims) Identity {
	if claims == nil {
		return nil
	}
	return claimsIdentity{
		id:       claims.UserID(),
		username: claims.Username(),
		role:     claims.Role(),
	}
}
