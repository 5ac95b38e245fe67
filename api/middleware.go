package api

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	// HeaderRequestID correlates client log lines with backend logs.
	HeaderRequestID = "X-Request-ID"
)

// TokenSource supplies the bearer credential for outgoing requests.
type TokenSource interface {
	CurrentToken() string
}

// BearerTransport attaches the current token to every request it carries.
// The token is read per request, so a logout between two requests is
// honored immediately.
type BearerTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	if out.Header.Get(HeaderRequestID) == "" {
		out.Header.Set(HeaderRequestID, uuid.NewString())
	}

	if t.Tokens != nil {
		if token := t.Tokens.CurrentToken(); token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return base.RoundTrip(out)
}
