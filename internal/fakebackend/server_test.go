package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	s := New()
	s.AddUser("Ann", "ann@example.com", "pw", 1)

	for _, path := range []string{"/files/my", "/users/credits", "/transactions", "/api/user/profile"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, rec.Code)
		}
	}

	token := s.IssueToken("ann@example.com")
	req := httptest.NewRequest(http.MethodGet, "/users/credits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /users/credits with token = %d, want 200", rec.Code)
	}
	var credit struct {
		Credits int `json:"credits"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&credit); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if credit.Credits != 1 {
		t.Errorf("credits = %d, want 1", credit.Credits)
	}
}

func TestServer_LoginEnvelope(t *testing.T) {
	s := New()
	s.AddUser("Ann", "ann@example.com", "pw", 0)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"pw"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || !s.TokenValid(body.Data.Token) {
		t.Errorf("unexpected login body %+v", body)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"bad"}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), MessageInvalidCredential) {
		t.Errorf("bad login = %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_FailNext(t *testing.T) {
	s := New()
	s.FailNext(http.StatusServiceUnavailable, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/public/x", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("first request = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/public/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second request = %d, want 404", rec.Code)
	}
	if got := len(s.Requests()); got != 2 {
		t.Errorf("recorded %d requests, want 2", got)
	}
}
