package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoad_Defaults verifies defaults apply when nothing is configured.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DBPath != "ecocrew.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.OutboxInterval != time.Minute {
		t.Errorf("OutboxInterval = %v, want 1m", cfg.OutboxInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

// TestLoad_EnvOverrides verifies ECOCREW_* variables override defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ECOCREW_ADDR", ":9999")
	t.Setenv("ECOCREW_DB_PATH", "/tmp/x.db")
	t.Setenv("ECOCREW_LOG_LEVEL", "debug")
	t.Setenv("ECOCREW_RATE_LIMIT", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.RateLimit != 42 {
		t.Errorf("RateLimit = %d", cfg.RateLimit)
	}
}

// TestLoad_File verifies values from a YAML file are read.
func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "addr: \":7070\"\nemail_from: \"Crew <crew@example.org>\"\noutbox_interval: 30s\n" +
		"session_ttl: 2h\ntrusted_origins:\n  - crew.example.org\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.EmailFrom != "Crew <crew@example.org>" {
		t.Errorf("EmailFrom = %q", cfg.EmailFrom)
	}
	if cfg.OutboxInterval != 30*time.Second {
		t.Errorf("OutboxInterval = %v", cfg.OutboxInterval)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.TrustedOrigins) != 1 || cfg.TrustedOrigins[0] != "crew.example.org" {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

// TestLoad_MissingFile verifies a configured but absent file is an error.
func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

// TestLoad_Production verifies production guards.
func TestLoad_Production(t *testing.T) {
	validKey := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "missing csrf key",
			env:     map[string]string{"ECOCREW_ENV": "production", "ECOCREW_ADMIN_PASSWORD": "a-real-password-123"},
			wantErr: ErrMissingCSRFKey,
		},
		{
			name:    "default admin password",
			env:     map[string]string{"ECOCREW_ENV": "production", "ECOCREW_CSRF_KEY": validKey},
			wantErr: ErrDefaultPassword,
		},
		{
			name:    "bad csrf key",
			env:     map[string]string{"ECOCREW_CSRF_KEY": "zz"},
			wantErr: ErrInvalidCSRFKey,
		},
		{
			name: "valid production",
			env: map[string]string{
				"ECOCREW_ENV": "production", "ECOCREW_CSRF_KEY": validKey,
				"ECOCREW_ADMIN_PASSWORD": "a-real-password-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && len(cfg.CSRFKey) != 32 {
				t.Errorf("CSRFKey length = %d, want 32", len(cfg.CSRFKey))
			}
		})
	}
}

// TestConfig_LoggerFormat verifies the json handler is selected by format.
func TestConfig_LoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	orig := logOutput
	logOutput = &buf
	t.Cleanup(func() { logOutput = orig })

	cfg := Config{LogFormat: "json", LogLevel: slog.LevelInfo}
	cfg.Logger().Info("sharing_event", "event", "test")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
