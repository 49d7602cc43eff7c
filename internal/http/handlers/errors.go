// Package handlers implements the HTTP endpoints under the API base path.
//
// Every failure is answered with an ErrorResponse whose code is one of the
// constants below. Clients branch on the code; the message is for display.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "User not found"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation       = "validation_failed"
	ErrCodeChatFailed       = "chat_failed"
	ErrCodeHistoryFailed    = "history_failed"
	ErrCodeSessionFailed    = "session_failed"
	ErrCodePreferenceFailed = "preferences_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
