// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "CATADMIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "sqlite")
	}
	if cfg.DataSource() != "./data/catadmin.db" {
		t.Errorf("DataSource() = %q, want %q", cfg.DataSource(), "./data/catadmin.db")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:8080")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want %v", cfg.SlogLevel(), slog.LevelInfo)
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without CATADMIN_REDIS_URL")
	}
	if cfg.AuditSchedule != "@every 1h" {
		t.Errorf("AuditSchedule = %q, want %q", cfg.AuditSchedule, "@every 1h")
	}
	if cfg.EventRetention() != 30*24*time.Hour {
		t.Errorf("EventRetention() = %v, want 720h", cfg.EventRetention())
	}
	if cfg.APIRateLimit != 10 || cfg.APIRateBurst != 20 {
		t.Errorf("rate limit = %v/%d, want 10/20", cfg.APIRateLimit, cfg.APIRateBurst)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "CATADMIN_SESSION_SECRET", customSecret)
	setEnv(t, "CATADMIN_DB_DRIVER", "mysql")
	setEnv(t, "CATADMIN_DB_DSN", "cat:secret@tcp(db:3306)/catadmin")
	setEnv(t, "CATADMIN_SERVER_HOST", "0.0.0.0")
	setEnv(t, "CATADMIN_SERVER_PORT", "3000")
	setEnv(t, "CATADMIN_ENV", "production")
	setEnv(t, "CATADMIN_LOG_LEVEL", "debug")
	setEnv(t, "CATADMIN_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataSource() != "cat:secret@tcp(db:3306)/catadmin" {
		t.Errorf("DataSource() = %q", cfg.DataSource())
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want %v", cfg.SlogLevel(), slog.LevelDebug)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with CATADMIN_REDIS_URL set")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when CATADMIN_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretStrength(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{"empty", "development", "", true},
		{"short in development", "development", "short", false},
		{"short in production", "production", "short", true},
		{"31 bytes in production", "production", "1234567890123456789012345678901", true},
		{"32 bytes in production", "production", "12345678901234567890123456789012", false},
		{"known default in production", "production", "change-me-to-32-byte-secret-key!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "CATADMIN_ENV", tt.env)
			setEnv(t, "CATADMIN_SESSION_SECRET", tt.secret)

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr bool
	}{
		{"unknown driver", map[string]string{"CATADMIN_DB_DRIVER": "postgres"}, true},
		{"mysql without dsn", map[string]string{"CATADMIN_DB_DRIVER": "mysql"}, true},
		{"zero rate limit", map[string]string{"CATADMIN_API_RATE_LIMIT": "0"}, true},
		{"sqlite path", map[string]string{"CATADMIN_DB_PATH": "/tmp/cat.db"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "CATADMIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
			for k, v := range tt.vars {
				setEnv(t, k, v)
			}

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Webhooks(t *testing.T) {
	os.Clearenv()
	setEnv(t, "CATADMIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UseWebhooks() {
		t.Error("UseWebhooks() = true without CATADMIN_WEBHOOK_URLS")
	}
	if cfg.WebhookRetries != 5 || cfg.WebhookTimeout != 10*time.Second {
		t.Errorf("webhook retries/timeout = %d/%v, want 5/10s", cfg.WebhookRetries, cfg.WebhookTimeout)
	}

	setEnv(t, "CATADMIN_WEBHOOK_URLS", "https://a.example/hook,https://b.example/hook")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.WebhookURLs) != 2 || cfg.WebhookURLs[1] != "https://b.example/hook" {
		t.Errorf("WebhookURLs = %v", cfg.WebhookURLs)
	}

	setEnv(t, "CATADMIN_ENV", "production")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should require CATADMIN_WEBHOOK_SECRET with webhooks in production")
	}
	setEnv(t, "CATADMIN_WEBHOOK_SECRET", "hook-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8080" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.ReadRetries != 3 {
		t.Errorf("ReadRetries = %d, want 3", cfg.ReadRetries)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v, want %v", cfg.SlogLevel(), slog.LevelWarn)
	}

	setEnv(t, "CATADMIN_BACKEND_URL", "ftp://example.com")
	if _, err := LoadClient(); err == nil {
		t.Error("LoadClient() should reject a non-http backend URL")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single character class should not pass")
	}
	if !hasMinimumEntropy("Abcdefgh1234567890abcdefghijklmn") {
		t.Error("three character classes should pass")
	}
}
