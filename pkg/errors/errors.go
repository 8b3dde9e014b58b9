// Package errors provides the structured error system shared by all collector
// services, with error codes, categories, and per-issue detail.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for collector operations.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeMissingConfig    ErrorCode = "MISSING_CONFIG"

	// Transport errors
	ErrCodeNetworkError      ErrorCode = "NETWORK_ERROR"
	ErrCodeConnectionTimeout ErrorCode = "CONNECTION_TIMEOUT"
	ErrCodeRetryExhausted    ErrorCode = "RETRY_EXHAUSTED"

	// Response validation errors
	ErrCodeInvalidResponse  ErrorCode = "INVALID_RESPONSE"
	ErrCodeSchemaValidation ErrorCode = "SCHEMA_VALIDATION"

	// Export / upload errors
	ErrCodeUploadFailed      ErrorCode = "UPLOAD_FAILED"
	ErrCodeDescriptorInvalid ErrorCode = "DESCRIPTOR_INVALID"
	ErrCodeStorageWrite      ErrorCode = "STORAGE_WRITE"

	// Contract errors
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryTransport     ErrorCategory = "transport"
	CategoryValidation    ErrorCategory = "validation"
	CategoryUpload        ErrorCategory = "upload"
	CategoryInternal      ErrorCategory = "internal"
)

// Issue describes a single validation problem within a larger failure, such
// as one bad field in a schema-validated response or one missing environment
// variable.
type Issue struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Description
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Description)
}

// CollectorError represents a structured error with context and metadata.
type CollectorError struct {
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`

	// Endpoint and Status are populated for HTTP response failures.
	Endpoint string `json:"endpoint,omitempty"`
	Status   int    `json:"status,omitempty"`

	// Target is populated for upload failures.
	Target string `json:"target,omitempty"`

	// Issues carries every individual validation problem, not just the first.
	Issues []Issue `json:"issues,omitempty"`

	// Retryable hints the retry layer whether the failure is transient.
	Retryable bool `json:"retryable"`

	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *CollectorError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Endpoint != "" {
		fmt.Fprintf(&sb, " (endpoint %s)", e.Endpoint)
	}
	if e.Target != "" {
		fmt.Fprintf(&sb, " (target %s)", e.Target)
	}
	if len(e.Issues) > 0 {
		descs := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			descs[i] = issue.String()
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(descs, "; "))
	}
	return sb.String()
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *CollectorError) Unwrap() error {
	return e.Cause
}

// Is matches two collector errors by code (for errors.Is compatibility).
func (e *CollectorError) Is(target error) bool {
	if other, ok := target.(*CollectorError); ok {
		return e.Code == other.Code
	}
	return false
}

// New creates a new collector error with defaults derived from the code.
func New(code ErrorCode, message string) *CollectorError {
	return &CollectorError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Retryable: IsRetryableByDefault(code),
		Timestamp: time.Now(),
	}
}

// NewInvalidResponse creates the error raised when a response lands outside
// the 2xx range. The message mirrors the server's status line.
func NewInvalidResponse(endpoint string, status int) *CollectorError {
	err := New(ErrCodeInvalidResponse,
		fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status)))
	err.Endpoint = endpoint
	err.Status = status
	return err
}

// NewSchemaValidation creates the error raised when a response payload fails
// schema validation. Every collected issue is carried, not just the first.
func NewSchemaValidation(endpoint string, issues []Issue) *CollectorError {
	err := New(ErrCodeSchemaValidation, "response failed schema validation")
	err.Endpoint = endpoint
	err.Issues = issues
	return err
}

// NewUpload creates the error raised by a cloud target when the underlying
// provider call fails.
func NewUpload(target string, cause error) *CollectorError {
	err := New(ErrCodeUploadFailed, "upload failed")
	err.Target = target
	err.Cause = cause
	return err
}

// NewDescriptorInvalid creates the error raised when an upload descriptor
// fails validation before any target is invoked.
func NewDescriptorInvalid(issues []Issue) *CollectorError {
	err := New(ErrCodeDescriptorInvalid, "invalid upload descriptor")
	err.Issues = issues
	return err
}

// NewConfiguration creates the fatal startup error carrying a field-by-field
// issue list.
func NewConfiguration(issues []Issue) *CollectorError {
	err := New(ErrCodeConfigValidation, "configuration validation failed")
	err.Issues = issues
	return err
}

// NewNotImplemented creates the error returned by base contract methods that
// a concrete collector must override.
func NewNotImplemented(what string) *CollectorError {
	return New(ErrCodeNotImplemented, what+" must be implemented by the concrete collector")
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeConfigValidation, ErrCodeMissingConfig:
		return CategoryConfiguration
	case ErrCodeNetworkError, ErrCodeConnectionTimeout, ErrCodeRetryExhausted:
		return CategoryTransport
	case ErrCodeInvalidResponse, ErrCodeSchemaValidation, ErrCodeDescriptorInvalid:
		return CategoryValidation
	case ErrCodeUploadFailed, ErrCodeStorageWrite:
		return CategoryUpload
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
func IsRetryableByDefault(code ErrorCode) bool {
	switch code {
	case ErrCodeNetworkError, ErrCodeConnectionTimeout:
		return true
	}
	return false
}

// WithCause sets the underlying cause.
func (e *CollectorError) WithCause(cause error) *CollectorError {
	e.Cause = cause
	return e
}

// WithIssue appends a validation issue.
func (e *CollectorError) WithIssue(field, description string) *CollectorError {
	e.Issues = append(e.Issues, Issue{Field: field, Description: description})
	return e
}

// WithRetryable overrides the retryable hint.
func (e *CollectorError) WithRetryable(retryable bool) *CollectorError {
	e.Retryable = retryable
	return e
}
