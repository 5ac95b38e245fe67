package api

import (
	"context"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   Class
	}{
		{http.StatusOK, ClassNone},
		{http.StatusNoContent, ClassNone},
		{http.StatusFound, ClassNone},
		{http.StatusBadRequest, ClassFailure},
		{http.StatusUnauthorized, ClassUnauthorized},
		{http.StatusPaymentRequired, ClassFailure},
		{http.StatusForbidden, ClassForbidden},
		{http.StatusNotFound, ClassFailure},
		{http.StatusInternalServerError, ClassServer},
		{http.StatusServiceUnavailable, ClassServer},
	}

	for _, tt := range tests {
		if got := Classify(tt.status); got != tt.want {
			t.Errorf("Classify(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", ""},
		{"message field", `{"status":"failed","message":"invalid credential"}`, "invalid credential"},
		{"error field", `{"timestamp":"2024-01-01","status":404,"error":"Not Found"}`, "Not Found"},
		{"message wins", `{"message":"m","error":"e"}`, "m"},
		{"broken json", `{"message":`, ""},
		{"plain text", "Not enough credits . Please purchase your credit first", "Not enough credits . Please purchase your credit first"},
		{"html page", "<html><body>502</body></html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("ErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestClaim_Merges(t *testing.T) {
	ctx := Claim(context.Background(), http.StatusPaymentRequired)
	ctx = Claim(ctx, http.StatusConflict)

	if !Claimed(ctx, http.StatusPaymentRequired) {
		t.Error("expected 402 to stay claimed")
	}
	if !Claimed(ctx, http.StatusConflict) {
		t.Error("expected 409 to be claimed")
	}
	if Claimed(ctx, http.StatusNotFound) {
		t.Error("expected 404 to be unclaimed")
	}
	if Claimed(context.Background(), http.StatusPaymentRequired) {
		t.Error("expected bare context to claim nothing")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Method: "GET", URL: "/files/my", StatusCode: 403, Class: ClassForbidden, Err: ErrForbidden}
	if !err.Is(ErrForbidden) {
		t.Error("expected forbidden error to match ErrForbidden")
	}
	if err.Is(ErrUnauthorized) {
		t.Error("expected forbidden error not to match ErrUnauthorized")
	}
	if got := err.Error(); got != "GET /files/my: 403 Forbidden" {
		t.Errorf("unexpected message %q", got)
	}
}
