package config

import (
	"log/slog"
	"testing"
	"time"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("tabletalk-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.AI.TranslateEnabled {
		t.Fatal("AI.TranslateEnabled should default to false")
	}
	if cfg.AI.Model != "gpt-5" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.MaxTokens != 200 {
		t.Fatalf("AI.MaxTokens = %d", cfg.AI.MaxTokens)
	}
	if cfg.Ingest.MaxUploadBytes != 64<<20 {
		t.Fatalf("Ingest.MaxUploadBytes = %d", cfg.Ingest.MaxUploadBytes)
	}
	if cfg.Ingest.PreviewRows != 100 {
		t.Fatalf("Ingest.PreviewRows = %d", cfg.Ingest.PreviewRows)
	}
	if cfg.History.DSN != "" {
		t.Fatalf("History.DSN = %q, want disabled by default", cfg.History.DSN)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("tabletalk-api", mapLookup(map[string]string{"TABLETALK_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL should default to true in prod")
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	cfg, err := Load("tabletalk-api", mapLookup(map[string]string{
		"TABLETALK_HTTP_ADDR":         ":9090",
		"TABLETALK_HTTP_READ_TIMEOUT": "10s",
		"TABLETALK_AI_MODEL":          "llama-4-scout",
		"TABLETALK_AI_MAX_TOKENS":     "400",
		"TABLETALK_HISTORY_DSN":       "postgres://localhost/tabletalk",
		"TABLETALK_LOG_LEVEL":         "warn",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9090" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.AI.Model != "llama-4-scout" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.MaxTokens != 400 {
		t.Fatalf("AI.MaxTokens = %d", cfg.AI.MaxTokens)
	}
	if cfg.History.DSN != "postgres://localhost/tabletalk" {
		t.Fatalf("History.DSN = %q", cfg.History.DSN)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"TABLETALK_PROFILE": "staging"},
		{"TABLETALK_HTTP_READ_TIMEOUT": "soon"},
		{"TABLETALK_AI_MAX_TOKENS": "many"},
		{"TABLETALK_LOG_LEVEL": "loud"},
		{"TABLETALK_AUTH_REQUIRED": "maybe"},
	}
	for _, env := range cases {
		if _, err := Load("tabletalk-api", mapLookup(env)); err == nil {
			t.Fatalf("Load() with %v should fail", env)
		}
	}
}

func TestLoadRequiresCredentialWhenTranslationEnabled(t *testing.T) {
	_, err := Load("tabletalk-api", mapLookup(map[string]string{
		"TABLETALK_AI_TRANSLATE_ENABLED": "true",
	}))
	if err == nil {
		t.Fatal("Load() should fail when translation is enabled without an api key")
	}

	cfg, err := Load("tabletalk-api", mapLookup(map[string]string{
		"TABLETALK_AI_TRANSLATE_ENABLED": "true",
		"TABLETALK_AI_API_KEY":           "secret",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.AI.TranslateEnabled {
		t.Fatal("AI.TranslateEnabled = false")
	}
}
