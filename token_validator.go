package auth

// TokenValidator validates a raw token string and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a plain function to the TokenValidator interface.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// MultiTokenValidator tries each validator in order, returning the first
// successful result. The last error wins when all validators fail.
type MultiTokenValidator []TokenValidator

func (m MultiTokenValidator) Validate(tokenString string) (AuthClaims, error) {
	var lastErr error
	for _, validator := range m {
		claims, err := validator.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrTokenMalformed
	}
	return nil, lastErr
}
