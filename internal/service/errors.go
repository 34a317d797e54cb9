package service

import "errors"

var (
	ErrAlreadyInitialized = errors.New("diary already initialized")
	ErrNotInitialized     = errors.New("diary not initialized")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrEntryNotFound      = errors.New("entry not found")

	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")
)

var (
	ErrSecretRequired  = &ValidationError{Field: "password", Message: "password is required"}
	ErrEntryIDRequired = &ValidationError{Field: "id", Message: "id is required"}
	ErrEntryIDTooLong  = &ValidationError{Field: "id", Message: "id must be at most 64 characters"}
	ErrTitleRequired   = &ValidationError{Field: "title", Message: "title is required"}
	ErrTitleTooLong    = &ValidationError{Field: "title", Message: "title must be at most 512 characters"}
	ErrContentRequired = &ValidationError{Field: "content", Message: "content is required"}
	ErrDateRequired    = &ValidationError{Field: "date", Message: "date is required"}
	ErrDateTooLong     = &ValidationError{Field: "date", Message: "date must be at most 64 characters"}
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
