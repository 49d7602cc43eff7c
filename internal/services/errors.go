// Package services holds the business logic behind the HTTP API: accounts
// and tokens, food preferences, chat history, and the chat exchange itself.
// This file centralizes the service-level error values so that handlers can
// map them to HTTP statuses with errors.Is.
//
// Translation into user-facing messages or status codes belongs to the
// handler layer.
package services

import "errors"

// Validation errors (400).
var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned when a chat message exceeds the configured
	// rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidPreferences is returned when a preference payload has no
	// known category or a value outside the allowed bounds.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// Authentication errors (401).
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = errors.New("token is invalid")

	// ErrMissingToken is returned when no token was supplied.
	ErrMissingToken = errors.New("token is missing")
)

// ErrUserNotFound is a lookup error (404).
var ErrUserNotFound = errors.New("user not found")
