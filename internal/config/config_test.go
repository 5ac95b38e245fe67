package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.APIBaseURL() != "http://localhost:8080/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL())
	}
	if cfg.WebURL != cfg.BaseURL {
		t.Errorf("WebURL = %q, want BaseURL", cfg.WebURL)
	}
	if cfg.SessionBackend != SessionBackendFile {
		t.Errorf("SessionBackend = %q, want file", cfg.SessionBackend)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.UploadTimeout != 60*time.Second {
		t.Errorf("UploadTimeout = %v, want 60s", cfg.UploadTimeout)
	}
	if cfg.VerifyOnStart {
		t.Error("VerifyOnStart should default to false")
	}
	if cfg.LogPath() != filepath.Join(dir, "cloudshare.log") {
		t.Errorf("LogPath = %q", cfg.LogPath())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("CLOUDSHARE_BASE_URL", "https://share.example.com/")
	t.Setenv("CLOUDSHARE_API_PREFIX", "v1")
	t.Setenv("CLOUDSHARE_SESSION_BACKEND", "SQLite")
	t.Setenv("CLOUDSHARE_REQUEST_TIMEOUT", "5s")
	t.Setenv("CLOUDSHARE_VERIFY_ON_START", "true")

	cfg, err := Load(Options{ConfigDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://share.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.APIBaseURL() != "https://share.example.com/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL())
	}
	if cfg.SessionBackend != SessionBackendSQLite {
		t.Errorf("SessionBackend = %q, want sqlite", cfg.SessionBackend)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if !cfg.VerifyOnStart {
		t.Error("VerifyOnStart should be true")
	}
}

func TestLoad_ConfigFileInDir(t *testing.T) {
	dir := t.TempDir()
	content := "base_url: http://files.internal:9000\nweb_url: https://share.example.com\nrequests_per_second: 2.5\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://files.internal:9000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.WebURL != "https://share.example.com" {
		t.Errorf("WebURL = %q", cfg.WebURL)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RequestsPerSecond)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("base_url: http://from-file:1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CLOUDSHARE_BASE_URL", "http://from-env:2")

	cfg, err := Load(Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://from-env:2" {
		t.Errorf("BaseURL = %q, want env value", cfg.BaseURL)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{ConfigDir: t.TempDir(), ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"relative base url", map[string]string{"CLOUDSHARE_BASE_URL": "localhost:8080"}},
		{"unknown backend", map[string]string{"CLOUDSHARE_SESSION_BACKEND": "redis"}},
		{"zero timeout", map[string]string{"CLOUDSHARE_REQUEST_TIMEOUT": "0s"}},
		{"negative rate", map[string]string{"CLOUDSHARE_REQUESTS_PER_SECOND": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(Options{ConfigDir: t.TempDir()}); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
