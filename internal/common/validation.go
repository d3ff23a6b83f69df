package common

// ValidationError represents a request rejected by input validation.
// Message is surfaced to the client verbatim, so it is written in the
// dashboard's vocabulary rather than as an internal diagnostic.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation failure for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
