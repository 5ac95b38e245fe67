package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrServer       = errors.New("server error")
	ErrFailure      = errors.New("request failed")
	ErrTransport    = errors.New("transport failure")
)

// Error is returned by the pipeline for every failed request, after the
// failure's side effects have been applied.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Class      Class
	// Message is the server-provided message, if any.
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the class sentinels so callers can write errors.Is(err, api.ErrUnauthorized).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Class == ClassUnauthorized
	case ErrForbidden:
		return e.Class == ClassForbidden
	case ErrServer:
		return e.Class == ClassServer
	case ErrFailure:
		return e.Class == ClassFailure
	case ErrTransport:
		return e.Class == ClassTransport
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
