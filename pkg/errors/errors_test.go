package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidResponse(t *testing.T) {
	err := NewInvalidResponse("/api/nodes", 503)

	assert.Equal(t, ErrCodeInvalidResponse, err.Code)
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, "/api/nodes", err.Endpoint)
	assert.Equal(t, 503, err.Status)
	assert.Contains(t, err.Error(), "503 Service Unavailable")
	assert.Contains(t, err.Error(), "/api/nodes")
}

func TestNewSchemaValidation_CarriesAllIssues(t *testing.T) {
	issues := []Issue{
		{Field: "name", Description: "required"},
		{Field: "count", Description: "must be numeric"},
	}
	err := NewSchemaValidation("/api/storage", issues)

	require.Len(t, err.Issues, 2)
	assert.Contains(t, err.Error(), "name: required")
	assert.Contains(t, err.Error(), "count: must be numeric")
}

func TestIs_MatchesByCode(t *testing.T) {
	err := NewUpload("bucket-a", fmt.Errorf("connection reset"))
	wrapped := fmt.Errorf("dispatch: %w", err)

	assert.True(t, stderrors.Is(wrapped, New(ErrCodeUploadFailed, "")))
	assert.False(t, stderrors.Is(wrapped, New(ErrCodeInvalidResponse, "")))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := New(ErrCodeNetworkError, "request failed").WithCause(cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, err.Retryable)
}

func TestRetryableDefaults(t *testing.T) {
	assert.True(t, IsRetryableByDefault(ErrCodeNetworkError))
	assert.True(t, IsRetryableByDefault(ErrCodeConnectionTimeout))
	assert.False(t, IsRetryableByDefault(ErrCodeInvalidResponse))
	assert.False(t, IsRetryableByDefault(ErrCodeConfigValidation))
}

func TestWithIssue_Appends(t *testing.T) {
	err := New(ErrCodeConfigValidation, "bad config").
		WithIssue("SERVICE_NAME", "required").
		WithIssue("SERVICE_LOCATION", "must be global or site")

	require.Len(t, err.Issues, 2)
	assert.Equal(t, "SERVICE_NAME", err.Issues[0].Field)
}
