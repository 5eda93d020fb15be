// Package common defines shared constants and sentinel errors used across
// the blogkeeper client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Credential and session errors.
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrSessionExpiredOrRevoked = errors.New("session expired or revoked")
	// The new password is stored but other sessions are still signed in.
	ErrSessionsNotRevoked = errors.New("password changed, other sessions not signed out")

	// Store failures. Wrapped together with the underlying cause.
	ErrStoreRead  = errors.New("store read failure")
	ErrStoreWrite = errors.New("store write failure")

	// Summarization collaborator.
	ErrNetworkTimeout = errors.New("network timeout")

	// Input validation.
	ErrValidation = errors.New("validation error")
)
