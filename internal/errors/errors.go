package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates the submitted form failed field validation
	ErrValidation = errors.New("invalid form data")

	// ErrFileInvalid indicates an attachment failed the CSV/size/emptiness rules
	ErrFileInvalid = errors.New("invalid attachment")

	// ErrSendFailed indicates the mail transport rejected or failed the message
	ErrSendFailed = errors.New("email sending failed")

	// ErrPersistence indicates an audit record could not be stored
	ErrPersistence = errors.New("audit persistence failed")

	// ErrPayloadTooLarge indicates the request body exceeded the upload limit
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeFileProcessing  = "FILE_PROCESSING_ERROR"
	CodeSendFailed      = "EMAIL_SENDING_ERROR"
	CodePayloadTooLarge = "FILE_TOO_LARGE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// ValidationError carries one message per violated form field.
type ValidationError struct {
	Details []string
}

// NewValidationError creates a ValidationError from field violations
func NewValidationError(details []string) *ValidationError {
	return &ValidationError{Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FileProcessingError names the attachment that broke an upload rule.
type FileProcessingError struct {
	Filename string
	Message  string
}

// NewFileProcessingError creates a FileProcessingError for the given file
func NewFileProcessingError(filename, message string) *FileProcessingError {
	return &FileProcessingError{Filename: filename, Message: message}
}

func (e *FileProcessingError) Error() string {
	return e.Message
}

func (e *FileProcessingError) Unwrap() error {
	return ErrFileInvalid
}

// SendError wraps a mail transport failure. It matches both ErrSendFailed
// and the underlying transport cause with errors.Is.
type SendError struct {
	Err error
}

// NewSendError wraps a transport error
func NewSendError(err error) *SendError {
	return &SendError{Err: err}
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return ErrSendFailed.Error()
	}
	return fmt.Sprintf("failed to send email: %v", e.Err)
}

func (e *SendError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSendFailed}
	}
	return []error{ErrSendFailed, e.Err}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsValidation checks if the error is a form validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFileInvalid checks if the error is an attachment error
func IsFileInvalid(err error) bool {
	return errors.Is(err, ErrFileInvalid)
}

// IsSendFailed checks if the error is a mail transport error
func IsSendFailed(err error) bool {
	return errors.Is(err, ErrSendFailed)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsValidation(err):
		return CodeValidation
	case IsFileInvalid(err):
		return CodeFileProcessing
	case IsInvalidInput(err):
		return CodeInvalidInput
	case IsSendFailed(err):
		return CodeSendFailed
	case errors.Is(err, ErrPayloadTooLarge):
		return CodePayloadTooLarge
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternalError
	}
}

// GetValidationError extracts a ValidationError from an error chain
func GetValidationError(err error) *ValidationError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}

// GetFileProcessingError extracts a FileProcessingError from an error chain
func GetFileProcessingError(err error) *FileProcessingError {
	var fErr *FileProcessingError
	if errors.As(err, &fErr) {
		return fErr
	}
	return nil
}
