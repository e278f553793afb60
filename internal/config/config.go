package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the lumen configuration.
type Config struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	Format            string        `yaml:"format"`
	TokenBudget       int           `yaml:"token_budget"`
	BatchOverhead     int           `yaml:"batch_overhead,omitempty"`
	Concurrency       int           `yaml:"concurrency_limit"`
	MaxRetries        int           `yaml:"max_retries"`
	TimeoutSeconds    int           `yaml:"timeout_seconds"`
	CategoryFilter    []string      `yaml:"category_filter,omitempty"`
	SubcategoryFilter []string      `yaml:"subcategory_filter,omitempty"`
	PromptsFile       string        `yaml:"prompts_file,omitempty"`
	Include           []string      `yaml:"include,omitempty"`
	Exclude           []string      `yaml:"exclude,omitempty"`
	Cache             CacheConfig   `yaml:"cache"`
	Privacy           PrivacyConfig `yaml:"privacy"`
}

// CacheConfig controls response caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// PrivacyConfig controls snippet redaction before prompts leave the machine.
type PrivacyConfig struct {
	RedactSecrets bool `yaml:"redact_secrets"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "cerebras",
		Model:          "llama-4-scout-17b-16e-instruct",
		Format:         "text",
		TokenBudget:    6000,
		Concurrency:    4,
		MaxRetries:     3,
		TimeoutSeconds: 600,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for lumen.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lumen"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "lumen"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lumen"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "lumen"), nil
	default:
		return filepath.Join(home, ".config", "lumen"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads config from path, or from the default config file when path
// is empty. A missing default file yields a zero Config and nil error; a
// missing explicit path is an error.
func LoadFile(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return Config{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the default config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(filePath string, overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.TokenBudget > 0 {
		dst.TokenBudget = src.TokenBudget
	}
	if src.BatchOverhead > 0 {
		dst.BatchOverhead = src.BatchOverhead
	}
	if src.Concurrency > 0 {
		dst.Concurrency = src.Concurrency
	}
	if src.MaxRetries > 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if len(src.CategoryFilter) > 0 {
		dst.CategoryFilter = src.CategoryFilter
	}
	if len(src.SubcategoryFilter) > 0 {
		dst.SubcategoryFilter = src.SubcategoryFilter
	}
	if src.PromptsFile != "" {
		dst.PromptsFile = src.PromptsFile
	}
	if len(src.Include) > 0 {
		dst.Include = src.Include
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// YAML cannot distinguish an unset bool from an explicit false, so file
	// values can only widen these, never narrow them.
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets || dst.Privacy.RedactSecrets
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("LUMEN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("LUMEN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LUMEN_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LUMEN_TOKEN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TokenBudget = n
		}
	}
	if v := os.Getenv("LUMEN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("LUMEN_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	for key, v := range overrides {
		if v == "" {
			continue
		}
		// Flag overrides reuse the config key names; unknown keys are a
		// programming error surfaced during development, not user input.
		_ = SetField(cfg, key, v)
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "token_budget":
		return setInt(&cfg.TokenBudget, key, value)
	case "batch_overhead":
		return setInt(&cfg.BatchOverhead, key, value)
	case "concurrency_limit":
		return setInt(&cfg.Concurrency, key, value)
	case "max_retries":
		return setInt(&cfg.MaxRetries, key, value)
	case "timeout_seconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "category_filter":
		cfg.CategoryFilter = splitList(value)
	case "subcategory_filter":
		cfg.SubcategoryFilter = splitList(value)
	case "prompts_file":
		cfg.PromptsFile = value
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "cache.enabled":
		cfg.Cache.Enabled = value == "true"
	case "cache.ttl_seconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redact_secrets":
		cfg.Privacy.RedactSecrets = value == "true"
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// GetField returns a single config field by key name.
func GetField(cfg Config, key string) (string, error) {
	switch key {
	case "provider":
		return cfg.Provider, nil
	case "model":
		return cfg.Model, nil
	case "format":
		return cfg.Format, nil
	case "token_budget":
		return strconv.Itoa(cfg.TokenBudget), nil
	case "batch_overhead":
		return strconv.Itoa(cfg.BatchOverhead), nil
	case "concurrency_limit":
		return strconv.Itoa(cfg.Concurrency), nil
	case "max_retries":
		return strconv.Itoa(cfg.MaxRetries), nil
	case "timeout_seconds":
		return strconv.Itoa(cfg.TimeoutSeconds), nil
	case "category_filter":
		return strings.Join(cfg.CategoryFilter, ","), nil
	case "subcategory_filter":
		return strings.Join(cfg.SubcategoryFilter, ","), nil
	case "prompts_file":
		return cfg.PromptsFile, nil
	case "include":
		return strings.Join(cfg.Include, ","), nil
	case "exclude":
		return strings.Join(cfg.Exclude, ","), nil
	case "cache.enabled":
		return strconv.FormatBool(cfg.Cache.Enabled), nil
	case "cache.ttl_seconds":
		return strconv.Itoa(cfg.Cache.TTLSeconds), nil
	case "privacy.redact_secrets":
		return strconv.FormatBool(cfg.Privacy.RedactSecrets), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Keys lists the settable config keys in display order.
func Keys() []string {
	return []string{
		"provider", "model", "format",
		"token_budget", "batch_overhead", "concurrency_limit",
		"max_retries", "timeout_seconds",
		"category_filter", "subcategory_filter", "prompts_file",
		"include", "exclude",
		"cache.enabled", "cache.ttl_seconds",
		"privacy.redact_secrets",
	}
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
