package errors

import "errors"

var (
	ErrNotFound = errors.New("account not found")

	ErrInvalidID = errors.New("invalid account ID format")

	ErrEmailTaken = errors.New("email is already registered")

	ErrCredentialNotFound = errors.New("credential not found")

	ErrSessionNotFound = errors.New("session not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
)
