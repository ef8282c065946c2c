// Package errors provides structured error handling for the application
// Errors carry a stable code that the transport layer maps to a status
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Caller contract violations (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidProfile   ErrorCode = "INVALID_PROFILE"
	CodeMissingData      ErrorCode = "MISSING_DATA"
	CodeRateLimited      ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Server side (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeAIServiceUnavailable ErrorCode = "AI_SERVICE_UNAVAILABLE"
	CodeMalformedAIResponse  ErrorCode = "MALFORMED_AI_RESPONSE"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code for the error code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed, CodeInvalidProfile, CodeMissingData:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeAIServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeMalformedAIResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewInvalidProfileError reports a user profile the calculators cannot use
func NewInvalidProfileError(cause error) *AppError {
	return NewAppError(CodeInvalidProfile, "Invalid user profile", causeText(cause)).WithCause(cause)
}

// NewMissingDataError reports a missing target or meal
func NewMissingDataError(cause error) *AppError {
	return NewAppError(CodeMissingData, "Missing nutrition data", causeText(cause)).WithCause(cause)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit float64) *AppError {
	return NewAppError(
		CodeRateLimited,
		"Rate limit exceeded",
		fmt.Sprintf("More than %.0f requests per minute", limit),
	).WithMetadata("limit_per_minute", limit)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewAIServiceError wraps a transport or timeout failure talking to a model provider
func NewAIServiceError(provider string, cause error) *AppError {
	return NewAppError(
		CodeAIServiceUnavailable,
		"AI service unavailable",
		fmt.Sprintf("Failed to communicate with %s", provider),
	).WithCause(cause).WithMetadata("provider", provider)
}

// NewMalformedAIResponseError wraps a provider reply that could not be decoded
func NewMalformedAIResponseError(provider string, cause error) *AppError {
	return NewAppError(
		CodeMalformedAIResponse,
		"Malformed AI response",
		fmt.Sprintf("Unexpected response shape from %s", provider),
	).WithCause(cause).WithMetadata("provider", provider)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error chain contains an AppError with the given code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from field errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
