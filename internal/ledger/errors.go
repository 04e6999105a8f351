package ledger

import "errors"

var (
	ErrTokenNotFound  = errors.New("recovery code is invalid")
	ErrTokenExpired   = errors.New("recovery code expired")
	ErrDuplicateCode  = errors.New("token code already in use")
	ErrSecretMismatch = errors.New("token secret does not match")
	ErrInvalidPurpose = errors.New("invalid token purpose")

	// ErrNoTokens is informational: there was nothing to invalidate.
	ErrNoTokens = errors.New("no tokens to invalidate")
)
