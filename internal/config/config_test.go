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
	cfg, err := Load("sqlscratch-api", mapLookup(map[string]string{}))
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
	if cfg.AI.Model != "gpt-5" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "" {
		t.Fatalf("AI.APIKey = %q, want empty default", cfg.AI.APIKey)
	}
	if cfg.AI.SeedRows != 5 {
		t.Fatalf("AI.SeedRows = %d", cfg.AI.SeedRows)
	}
	if cfg.Sandbox.RowLimit != 0 {
		t.Fatalf("Sandbox.RowLimit = %d", cfg.Sandbox.RowLimit)
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		t.Fatal("expected default allowed origins")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("sqlscratch-api", mapLookup(map[string]string{"SQLSCRATCH_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	cfg, err := Load("sqlscratch-api", mapLookup(map[string]string{
		"SQLSCRATCH_HTTP_ADDR":            ":9999",
		"SQLSCRATCH_HTTP_ALLOWED_ORIGINS": "https://one.example , https://two.example,",
		"SQLSCRATCH_AI_BASE_URL":          "http://localhost:11434",
		"SQLSCRATCH_AI_API_KEY":           "sk-test",
		"SQLSCRATCH_AI_TIMEOUT":           "90s",
		"SQLSCRATCH_AI_TEMPERATURE":       "0.7",
		"SQLSCRATCH_SANDBOX_ROW_LIMIT":    "500",
		"SQLSCRATCH_LOG_JSON":             "false",
		"SQLSCRATCH_LOG_LEVEL":            "warn",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	want := []string{"https://one.example", "https://two.example"}
	if len(cfg.HTTP.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v", cfg.HTTP.AllowedOrigins)
	}
	for i, origin := range want {
		if cfg.HTTP.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.HTTP.AllowedOrigins[i], origin)
		}
	}
	if cfg.AI.BaseURL != "http://localhost:11434" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.Timeout != 90*time.Second {
		t.Fatalf("AI.Timeout = %v", cfg.AI.Timeout)
	}
	if cfg.AI.Temperature != 0.7 {
		t.Fatalf("AI.Temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Sandbox.RowLimit != 500 {
		t.Fatalf("Sandbox.RowLimit = %d", cfg.Sandbox.RowLimit)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON should be false")
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad profile":  {"SQLSCRATCH_PROFILE": "staging"},
		"bad duration": {"SQLSCRATCH_AI_TIMEOUT": "soon"},
		"bad int":      {"SQLSCRATCH_SANDBOX_ROW_LIMIT": "many"},
		"bad float":    {"SQLSCRATCH_AI_TEMPERATURE": "warm"},
		"bad level":    {"SQLSCRATCH_LOG_LEVEL": "loud"},
		"bad seeds":    {"SQLSCRATCH_AI_SEED_ROWS": "0"},
		"no origins":   {"SQLSCRATCH_HTTP_ALLOWED_ORIGINS": ""},
		"blank origin": {"SQLSCRATCH_HTTP_ALLOWED_ORIGINS": " , "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load("sqlscratch-api", mapLookup(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
