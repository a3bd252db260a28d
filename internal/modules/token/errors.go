package token

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOAuthNotConfigured = errors.New("oauth verifier not configured")
)
