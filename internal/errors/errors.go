package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the portal
var (
	// Session errors
	ErrSessionExpired  = errors.New("session expired")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNoAccessToken   = errors.New("no access token stored")
	ErrNoRefreshToken  = errors.New("no refresh token stored")

	// Token errors
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenNoExpiry  = errors.New("token has no exp claim")

	// Storage errors
	ErrNotFound         = errors.New("not found")
	ErrInvalidNamespace = errors.New("invalid namespace")
	ErrSealed           = errors.New("sealed value could not be opened")

	// Backend errors
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidEnvelope    = errors.New("invalid response envelope")
)

// SessionExpiredMessage is the error recorded on the session when a refresh fails.
const SessionExpiredMessage = "Session expired. Please login again."

// APIError is the uniform error object for any failed backend call.
type APIError struct {
	Message    string         `json:"message"`
	Code       string         `json:"code,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"statusCode"`
	Cause      error          `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewAPIError builds an APIError, falling back to the HTTP status text when message is empty.
func NewAPIError(statusCode int, message string) *APIError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	if message == "" {
		message = "Request failed"
	}
	return &APIError{Message: message, StatusCode: statusCode}
}

// IsUnauthorized reports whether err carries a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// Message returns the user facing message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
