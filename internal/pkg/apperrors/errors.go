package apperrors

import "errors"

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")

	// ErrServiceUnavailable marks backing store failures that are safe to retry
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Authentication errors
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")
)

// Messaging errors
var (
	ErrEmptyMessage          = NewCustomError(ErrValidationFailed, "Message must have either text or attachments").WithCode("MSG_001")
	ErrForbiddenConversation = NewCustomError(ErrPermissionDenied, "Users can only message admins").WithCode("MSG_002")
	ErrInvalidReceiver       = NewCustomError(ErrBadRequest, "Invalid receiver").WithCode("MSG_003")
	ErrInvalidSender         = NewCustomError(ErrBadRequest, "Invalid sender").WithCode("MSG_003")
	ErrMessageNotFound       = NewCustomError(ErrResourceNotFound, "Message not found").WithCode("MSG_004")
)

// Directory errors
var (
	ErrUserNotFound         = NewCustomError(ErrResourceNotFound, "User not found")
	ErrAnnouncementNotFound = NewCustomError(ErrResourceNotFound, "Announcement not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{Err: ErrBadRequest, Message: message}
}

// NewValidationError creates a validation error naming the offending field
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NewUnavailableError wraps a store failure as a retryable error
func NewUnavailableError(message string, cause error) error {
	return &CustomError{Err: errors.Join(ErrServiceUnavailable, cause), Message: message}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// As returns the outermost CustomError in the chain, if any
func As(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
