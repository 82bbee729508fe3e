package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenMissing        = errors.New("token missing")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// Contact related errors
	ErrContactNotFound = errors.New("contact not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
