package api

import (
	"net/http"
	"testing"
)

type staticToken string

func (s staticToken) CurrentToken() string { return string(s) }

type recordingTransport struct {
	req *http.Request
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.req = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestBearerTransport_SetsHeaderOnClone(t *testing.T) {
	rec := &recordingTransport{}
	transport := &BearerTransport{Base: rec, Tokens: staticToken("abc")}

	req, err := http.NewRequest(http.MethodGet, "http://backend/files/my", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if _, err := transport.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}

	if got := rec.req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("expected Bearer abc, got %q", got)
	}
	if rec.req.Header.Get(HeaderRequestID) == "" {
		t.Error("expected a request ID")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("caller's request must not be modified")
	}
}

func TestBearerTransport_EmptyTokenLeavesRequestAlone(t *testing.T) {
	rec := &recordingTransport{}
	transport := &BearerTransport{Base: rec, Tokens: staticToken("")}

	req, err := http.NewRequest(http.MethodGet, "http://backend/files/public/1", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set(HeaderRequestID, "fixed")
	if _, err := transport.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}

	if _, ok := rec.req.Header["Authorization"]; ok {
		t.Error("expected no Authorization header")
	}
	if got := rec.req.Header.Get(HeaderRequestID); got != "fixed" {
		t.Errorf("expected caller's request ID to be kept, got %q", got)
	}
}
