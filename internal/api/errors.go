package api

import (
	"errors"
	"fmt"
)

// AuthError indicates that the bearer token was rejected (HTTP 401).
// Notification calls never auto-refresh tokens; the caller decides how
// to surface the failure.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is returned for any non-2xx response that is not an auth
// failure. Detail carries the backend's "detail" field when present.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(
			"%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail,
		)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsNotFound reports whether err is a StatusError with code 404, which
// the backend returns both for missing notifications and for delete
// attempts on notifications the caller does not own.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == 404
}
