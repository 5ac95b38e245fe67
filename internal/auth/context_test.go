package auth

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := ExtractBearerToken(req); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestWithUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if GetEmail(req) != "" || GetToken(req) != "" {
		t.Fatal("expected empty values without a user")
	}

	req = req.WithContext(WithUser(context.Background(), "a@example.com", "tok"))
	if got := GetEmail(req); got != "a@example.com" {
		t.Errorf("GetEmail = %q", got)
	}
	if got := GetToken(req); got != "tok" {
		t.Errorf("GetToken = %q", got)
	}
}
