package moltbook

// APIError represents a Moltbook API error
type APIError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	StatusCode  int    `json:"status_code,omitempty"`
	IsRetryable bool   `json:"is_retryable"`

	// Rate limit hints parsed from a 429 response body, zero when absent.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
	RetryAfterMinutes int `json:"retry_after_minutes,omitempty"`

	OriginalError error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return "moltbook error: " + e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.OriginalError
}

// Common error codes
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeAuthentication = "authentication_error"
	ErrorCodeRateLimit      = "rate_limit_exceeded"
	ErrorCodeNameTaken      = "name_already_taken"
	ErrorCodeServerError    = "server_error"
	ErrorCodeTimeout        = "timeout"
	ErrorCodeUnknown        = "unknown_error"
)

// NewAPIError creates a new API error
func NewAPIError(code, message string, original error) *APIError {
	return &APIError{
		Code:          code,
		Message:       message,
		OriginalError: original,
		IsRetryable:   isRetryableCode(code),
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrorCodeRateLimit, ErrorCodeServerError, ErrorCodeTimeout:
		return true
	default:
		return false
	}
}
