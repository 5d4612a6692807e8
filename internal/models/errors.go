package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailNotFound      = errors.New("email not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrRoleNotAllowed     = errors.New("role is not allowed for self-registration")

	ErrTokenMissing      = errors.New("token missing")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrRoleMismatch      = errors.New("role mismatch")

	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
)

// IsRetryable — повторять имеет смысл только сбои хранилища.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsTokenError — любая причина, по которой токен не принят (кроме роли).
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMissing) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenBadSignature) ||
		errors.Is(err, ErrTokenExpired)
}
