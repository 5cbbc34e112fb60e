// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for memai.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.memai/config.toml
//   - ~/.memai/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/memai/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete memai configuration.
type Config struct {
	// Backend selects the inference engine: "local", "ollama", "huggingface"
	Backend string `toml:"backend" json:"backend"`

	// Llama contains local llama.cpp configuration
	Llama LlamaConfig `toml:"llama" json:"llama"`

	// Ollama contains Ollama daemon configuration
	Ollama OllamaConfig `toml:"ollama" json:"ollama"`

	// HuggingFace contains HuggingFace Inference API configuration
	HuggingFace HuggingFaceConfig `toml:"huggingface" json:"huggingface"`

	// Generation contains sampling parameters shared by all backends
	Generation GenerationConfig `toml:"generation" json:"generation"`

	// History contains conversation persistence settings
	History HistoryConfig `toml:"history" json:"history"`

	// UI contains terminal UI settings
	UI UIConfig `toml:"ui" json:"ui"`
}

// LlamaConfig contains local llama.cpp backend configuration.
type LlamaConfig struct {
	// BinaryPath is the path to the llama.cpp CLI binary.
	// Empty means search $PATH and common install locations.
	BinaryPath string `toml:"binary_path" json:"binary_path"`
	// ModelsDir is the directory scanned for .gguf model files
	ModelsDir string `toml:"models_dir" json:"models_dir"`
	// DefaultModel is the path of the model used when none is selected
	DefaultModel string `toml:"default_model" json:"default_model"`
	// GPULayers is the number of layers to offload to the GPU (0 = CPU only)
	GPULayers int `toml:"gpu_layers" json:"gpu_layers"`
}

// OllamaConfig contains Ollama daemon configuration.
type OllamaConfig struct {
	// URL is the base URL of the Ollama HTTP API
	URL string `toml:"url" json:"url"`
	// Model is the default Ollama model tag
	Model string `toml:"model" json:"model"`
	// AutoStart launches `ollama serve` when the daemon is not reachable
	AutoStart bool `toml:"auto_start" json:"auto_start"`
}

// HuggingFaceConfig contains HuggingFace Inference API configuration.
type HuggingFaceConfig struct {
	// APIKey is the HuggingFace access token
	APIKey string `toml:"api_key" json:"api_key"`
	// Model is the default model repository (e.g. "mistralai/Mistral-7B-Instruct-v0.2")
	Model string `toml:"model" json:"model"`
}

// GenerationConfig contains sampling parameters.
type GenerationConfig struct {
	// MaxTokens limits the number of generated tokens per response
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// Temperature is the sampling temperature (0.0-2.0)
	Temperature float64 `toml:"temperature" json:"temperature"`
	// ContextSize is the model context window in tokens
	ContextSize int `toml:"context_size" json:"context_size"`
	// Threads is the CPU thread count for local inference (0 = auto-detect)
	Threads int `toml:"threads" json:"threads"`
}

// HistoryConfig contains conversation persistence settings.
type HistoryConfig struct {
	// Enabled controls whether conversations are saved to disk
	Enabled bool `toml:"enabled" json:"enabled"`
	// MaxConversations caps stored conversations, oldest deleted first (0 = unlimited)
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ShowStats displays token counts and generation speed after responses
	ShowStats bool `toml:"show_stats" json:"show_stats"`
	// CompactMode uses a denser transcript layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// Backend type values.
const (
	BackendLocal       = "local"
	BackendOllama      = "ollama"
	BackendHuggingFace = "huggingface"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Backend: BackendLocal,

		Llama: LlamaConfig{
			BinaryPath:   "",
			ModelsDir:    filepath.Join(home, ".memai", "models"),
			DefaultModel: "",
			GPULayers:    0,
		},

		Ollama: OllamaConfig{
			// Explicit IPv4 avoids slow IPv6 localhost resolution on some hosts.
			URL:       "http://127.0.0.1:11434",
			Model:     "",
			AutoStart: true,
		},

		HuggingFace: HuggingFaceConfig{
			APIKey: "",
			Model:  "",
		},

		Generation: GenerationConfig{
			MaxTokens:   512,
			Temperature: 0.7,
			ContextSize: 2048,
			Threads:     0,
		},

		History: HistoryConfig{
			Enabled:          true,
			MaxConversations: 100,
		},

		UI: UIConfig{
			Theme:       "auto",
			ShowStats:   true,
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the memai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".memai"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return loadAndFinish(cfg, tomlPath, LoadTOML)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return loadAndFinish(cfg, jsonPath, LoadJSON)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadAndFinish(cfg *Config, path string, load func(*Config, string) error) (*Config, error) {
	if err := load(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	// SECURITY: config may hold an API key, keep it owner-only.
	ensureSecurePermissions(path)

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	ensureSecurePermissions(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		return loadAndFinish(cfg, path, LoadJSON)
	}
	return loadAndFinish(cfg, path, LoadTOML)
}

// ensureSecurePermissions tightens permissions on config files to 0600.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not fix permissions on %s: %v\n", path, err)
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# memai configuration file\n")
	sb.WriteString("# Generated by memai - edit with care\n\n")

	encoder := toml.NewEncoder(&sb)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: atomic write so a crash mid-save never corrupts the config.
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validBackends := map[string]bool{BackendLocal: true, BackendOllama: true, BackendHuggingFace: true}
	if !validBackends[strings.ToLower(c.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: local, ollama, huggingface", c.Backend),
		})
	}

	if c.Ollama.URL != "" {
		if u, err := url.Parse(c.Ollama.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Ollama.URL),
			})
		}
	}

	if c.Generation.MaxTokens < 1 {
		errs = append(errs, ValidationError{
			Field:   "generation.max_tokens",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Generation.MaxTokens),
		})
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "generation.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %g", c.Generation.Temperature),
		})
	}

	if c.Generation.ContextSize < 256 {
		errs = append(errs, ValidationError{
			Field:   "generation.context_size",
			Message: fmt.Sprintf("must be at least 256, got %d", c.Generation.ContextSize),
		})
	}

	if c.Generation.Threads < 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.threads",
			Message: "cannot be negative",
		})
	}

	if c.Llama.GPULayers < 0 {
		errs = append(errs, ValidationError{
			Field:   "llama.gpu_layers",
			Message: "cannot be negative",
		})
	}

	if c.History.MaxConversations < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_conversations",
			Message: "cannot be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.Llama.ModelsDir == "" {
		c.Llama.ModelsDir = defaults.Llama.ModelsDir
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = defaults.Generation.Temperature
	}
	if c.Generation.ContextSize == 0 {
		c.Generation.ContextSize = defaults.Generation.ContextSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MEMAI_BACKEND: overrides backend
//   - MEMAI_LLAMA_BIN: overrides llama.binary_path
//   - MEMAI_MODELS_DIR: overrides llama.models_dir
//   - MEMAI_OLLAMA_URL: overrides ollama.url
//   - MEMAI_OLLAMA_MODEL: overrides ollama.model
//   - MEMAI_HF_API_KEY: overrides huggingface.api_key
//   - MEMAI_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MEMAI_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("MEMAI_LLAMA_BIN"); v != "" {
		c.Llama.BinaryPath = v
	}
	if v := os.Getenv("MEMAI_MODELS_DIR"); v != "" {
		c.Llama.ModelsDir = v
	}
	if v := os.Getenv("MEMAI_OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("MEMAI_OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("MEMAI_HF_API_KEY"); v != "" {
		c.HuggingFace.APIKey = v
	}
	if v := os.Getenv("MEMAI_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ollama.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.navigate(key, false)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.navigate(key, true)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

// navigate walks the config struct along a dot-notation key.
func (c *Config) navigate(key string, forSet bool) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 || key == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if forSet && !field.CanSet() {
				return reflect.Value{}, fmt.Errorf("cannot set field: %s", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to the Go field name.
// "gpu_layers" and "apikey" match via case-insensitive comparison.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.EqualFold(strVal, "true") || strings.EqualFold(strVal, "yes")
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"backend",
		"llama.binary_path",
		"llama.models_dir",
		"llama.default_model",
		"llama.gpu_layers",
		"ollama.url",
		"ollama.model",
		"ollama.auto_start",
		"huggingface.api_key",
		"huggingface.model",
		"generation.max_tokens",
		"generation.temperature",
		"generation.context_size",
		"generation.threads",
		"history.enabled",
		"history.max_conversations",
		"ui.theme",
		"ui.show_stats",
		"ui.compact_mode",
	}
}

// String returns a string representation of the config for debugging.
// The HuggingFace API key is redacted so it never leaks into logs or
// terminal output.
func (c *Config) String() string {
	safe := *c
	if safe.HuggingFace.APIKey != "" {
		safe.HuggingFace.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(&safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
