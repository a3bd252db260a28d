package domain

import "errors"

// Closed set of token failure variants. The repository decodes storage
// errors into these once, at the store boundary; callers branch with
// errors.Is and never inspect driver errors.
var (
	// ErrInvalidToken: bad signature, claims or kind. Not retryable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired: refresh lifetime elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotFound: unknown or already-revoked token. Clients see the
	// same outcome as expiry so revocation state does not leak.
	ErrTokenNotFound = errors.New("token not found")

	// ErrReuseDetected: a consumed single-use token was presented again;
	// the whole family has been revoked.
	ErrReuseDetected = errors.New("token reuse detected")

	// ErrStoreUnavailable: infrastructure failure, retryable.
	ErrStoreUnavailable = errors.New("token store unavailable")

	ErrUserNotFound = errors.New("user not found")
)
