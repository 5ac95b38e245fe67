package utils

import "testing"

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"http://localhost:8080", []string{"/api", "auth/login"}, "http://localhost:8080/api/auth/login"},
		{"http://localhost:8080/", []string{"files", "my"}, "http://localhost:8080/files/my"},
		{"http://localhost:8080", []string{"", "files"}, "http://localhost:8080/files"},
		{"http://localhost:8080", []string{"files", "public", "a b"}, "http://localhost:8080/files/public/a%20b"},
		{"http://localhost:8080/api", nil, "http://localhost:8080/api"},
	}

	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("JoinURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestShareLink(t *testing.T) {
	got := ShareLink("https://share.example.com/", "abc123")
	if got != "https://share.example.com/file/abc123" {
		t.Errorf("ShareLink = %q", got)
	}
}

func TestEncodeURLWithSpaces(t *testing.T) {
	result, err := EncodeURLWithSpaces("http://example.com/path with spaces/file name.pdf?q=a b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "http://example.com/path%20with%20spaces/file%20name.pdf?q=a%20b"
	if result != want {
		t.Errorf("EncodeURLWithSpaces = %q, want %q", result, want)
	}
}

func TestFileIDFromLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"https://share.example.com/file/abc123", "abc123"},
		{"http://localhost:8080/files/download/abc123/", "abc123"},
		{"https://share.example.com/file/my id", "my id"},
	}

	for _, tt := range tests {
		if got := FileIDFromLink(tt.in); got != tt.want {
			t.Errorf("FileIDFromLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
