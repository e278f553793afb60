// Package config loads and merges lumen configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (LUMEN_PROVIDER, LUMEN_MODEL, LUMEN_TOKEN_BUDGET, etc.)
//  3. Config file ($XDG_CONFIG_HOME/lumen/config.yaml, or --config)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField]/[GetField] for single-key access from the CLI.
package config
