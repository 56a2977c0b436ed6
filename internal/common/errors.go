// Package common defines shared constants and sentinel errors used across
// the server layers of todokeeper. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorAccountNotFound    = errors.New("account not found")
	ErrorTaskNotFound       = errors.New("task not found")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorInvalidCredentials = errors.New("invalid username or password")

	// Validation errors.
	ErrorValidation          = errors.New("validation error")
	ErrorInvalidExtension    = errors.New("invalid extension")
	ErrorExtensionNotAllowed = errors.New("extension not allowed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
