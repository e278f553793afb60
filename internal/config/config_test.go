package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "cerebras" {
		t.Errorf("Default provider = %q, want %q", cfg.Provider, "cerebras")
	}
	if cfg.Model != "llama-4-scout-17b-16e-instruct" {
		t.Errorf("Default model = %q", cfg.Model)
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.TokenBudget != 6000 {
		t.Errorf("Default token_budget = %d, want 6000", cfg.TokenBudget)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Default concurrency_limit = %d, want 4", cfg.Concurrency)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Default max_retries = %d, want 3", cfg.MaxRetries)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 86400 {
		t.Errorf("Default cache = %+v", cfg.Cache)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redact_secrets should be true")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
provider: ollama
model: qwen2.5-coder
token_budget: 8000
concurrency_limit: 2
category_filter:
  - security
cache:
  ttl_seconds: 60
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "ollama" || cfg.Model != "qwen2.5-coder" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TokenBudget != 8000 || cfg.Concurrency != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CategoryFilter) != 1 || cfg.CategoryFilter[0] != "security" {
		t.Errorf("category_filter = %v", cfg.CategoryFilter)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("cache.ttl_seconds = %d", cfg.Cache.TTLSeconds)
	}
}

func TestLoadFile_ExplicitPathMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("explicit missing path should error")
	}
}

func TestLoad_MergePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "provider: openai\nmodel: gpt-4o\ntoken_budget: 8000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LUMEN_MODEL", "env-model")
	t.Setenv("LUMEN_PROVIDER", "")

	cfg, err := Load(path, map[string]string{"model": "flag-model"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q, want file value", cfg.Provider)
	}
	if cfg.Model != "flag-model" {
		t.Errorf("model = %q, want flag to beat env and file", cfg.Model)
	}
	if cfg.TokenBudget != 8000 {
		t.Errorf("token_budget = %d, want file value", cfg.TokenBudget)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("concurrency_limit = %d, want default", cfg.Concurrency)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("LUMEN_PROVIDER", "ollama")
	t.Setenv("LUMEN_FORMAT", "json")
	t.Setenv("LUMEN_TOKEN_BUDGET", "9000")
	t.Setenv("LUMEN_CONCURRENCY", "8")
	t.Setenv("LUMEN_MAX_RETRIES", "5")
	t.Setenv("LUMEN_MODEL", "")

	cfg := Default()
	mergeEnv(&cfg)
	if cfg.Provider != "ollama" || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TokenBudget != 9000 || cfg.Concurrency != 8 || cfg.MaxRetries != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Model != Default().Model {
		t.Errorf("empty env var should not override model, got %q", cfg.Model)
	}
}

func TestSetGetField(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key   string
		value string
	}{
		{"provider", "ollama"},
		{"model", "m"},
		{"format", "sarif"},
		{"token_budget", "4000"},
		{"concurrency_limit", "2"},
		{"max_retries", "7"},
		{"category_filter", "security, performance"},
		{"cache.enabled", "false"},
		{"privacy.redact_secrets", "true"},
	}
	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Fatalf("SetField(%s) error: %v", tt.key, err)
		}
	}
	if got, _ := GetField(cfg, "token_budget"); got != "4000" {
		t.Errorf("token_budget = %q", got)
	}
	if got, _ := GetField(cfg, "category_filter"); got != "security,performance" {
		t.Errorf("category_filter = %q", got)
	}
	if got, _ := GetField(cfg, "cache.enabled"); got != "false" {
		t.Errorf("cache.enabled = %q", got)
	}

	if err := SetField(&cfg, "token_budget", "abc"); err == nil {
		t.Error("non-integer token_budget should error")
	}
	if err := SetField(&cfg, "mystery", "x"); err == nil {
		t.Error("unknown key should error")
	}
	if _, err := GetField(cfg, "mystery"); err == nil {
		t.Error("unknown key should error")
	}
}

func TestKeysAllReadable(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if _, err := GetField(cfg, key); err != nil {
			t.Errorf("GetField(%s) error: %v", key, err)
		}
	}
}
