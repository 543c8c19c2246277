// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package config provides configuration loading and management for DARK AI.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.darkai/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete DARK AI client configuration.
type Config struct {
	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// Speech (text-to-speech) configuration
	Speech SpeechConfig `toml:"speech"`

	// Screen capture configuration
	Capture CaptureConfig `toml:"capture"`

	// Log configuration
	Log LogConfig `toml:"log"`

	// Archive (local message mirror) configuration
	Archive ArchiveConfig `toml:"archive"`
}

// BackendConfig contains the chat backend connection settings.
type BackendConfig struct {
	// URL is the base URL of the DARK AI backend
	URL string `toml:"url"`
	// SessionID identifies the conversation on the backend.
	// The backend keys all history to this value.
	SessionID string `toml:"session_id"`
	// TimeoutSecs is the per-request timeout in seconds.
	// Chat replies can take a while, so this is generous by default.
	TimeoutSecs int `toml:"timeout_secs"`
	// RetryAttempts is the number of attempts for idempotent requests
	RetryAttempts int `toml:"retry_attempts"`
}

// SpeechConfig contains text-to-speech settings.
type SpeechConfig struct {
	// APIKey is an optional ElevenLabs API key. When set, speech is
	// configured on the backend at startup instead of via the chat box.
	APIKey string `toml:"api_key"`
	// AutoplayDelayMs is the pause between a reply appearing on screen
	// and its audio starting, in milliseconds.
	AutoplayDelayMs int `toml:"autoplay_delay_ms"`
}

// CaptureConfig contains screen capture settings for screen sharing.
type CaptureConfig struct {
	// FFmpegPath is the ffmpeg binary used for screen capture
	FFmpegPath string `toml:"ffmpeg_path"`
	// Display is the X11 display to capture (e.g. ":0.0")
	Display string `toml:"display"`
	// FrameRate is the capture frame rate
	FrameRate int `toml:"frame_rate"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	// Path is the log file path (empty = ~/.darkai/darkai.log).
	// The TUI owns the terminal, so logs always go to a file.
	Path string `toml:"path"`
	// Level is the log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`
}

// ArchiveConfig contains the local message archive settings.
type ArchiveConfig struct {
	// Enabled turns the local SQLite mirror on or off
	Enabled bool `toml:"enabled"`
	// Path is the archive database path (empty = ~/.darkai/archive.db)
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultSessionID is the conversation identifier used when none is
// configured. It matches what the backend uses for its single session.
const DefaultSessionID = "main_session"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:           "http://localhost:8000",
			SessionID:     DefaultSessionID,
			TimeoutSecs:   120,
			RetryAttempts: 3,
		},
		Speech: SpeechConfig{
			AutoplayDelayMs: 300,
		},
		Capture: CaptureConfig{
			FFmpegPath: "ffmpeg",
			Display:    ":0.0",
			FrameRate:  15,
		},
		Log: LogConfig{
			Level: "info",
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the DARK AI configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".darkai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LogPath returns the configured log file path, falling back to the
// default inside the config directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "darkai.log"), nil
}

// ArchivePath returns the configured archive database path, falling back
// to the default inside the config directory.
func (c *Config) ArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return c.Archive.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		// No home directory. Run on defaults plus env overrides.
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid TOML: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Used by tests and the --config flag.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults fills in any zero values with defaults so a sparse config
// file never produces an unusable client.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.SessionID == "" {
		cfg.Backend.SessionID = defaults.Backend.SessionID
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.RetryAttempts == 0 {
		cfg.Backend.RetryAttempts = defaults.Backend.RetryAttempts
	}
	if cfg.Speech.AutoplayDelayMs == 0 {
		cfg.Speech.AutoplayDelayMs = defaults.Speech.AutoplayDelayMs
	}
	if cfg.Capture.FFmpegPath == "" {
		cfg.Capture.FFmpegPath = defaults.Capture.FFmpegPath
	}
	if cfg.Capture.Display == "" {
		cfg.Capture.Display = defaults.Capture.Display
	}
	if cfg.Capture.FrameRate == 0 {
		cfg.Capture.FrameRate = defaults.Capture.FrameRate
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions
// so a stored API key stays owner-readable only.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
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
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend URL must be absolute http(s)
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Backend.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("scheme must be http or https, got '%s'", u.Scheme),
		})
	}

	if strings.TrimSpace(c.Backend.SessionID) == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.session_id",
			Message: "must not be empty",
		})
	}

	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Backend.TimeoutSecs),
		})
	}

	if c.Backend.RetryAttempts < 1 || c.Backend.RetryAttempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "backend.retry_attempts",
			Message: fmt.Sprintf("must be 1-10, got %d", c.Backend.RetryAttempts),
		})
	}

	if c.Speech.AutoplayDelayMs < 0 || c.Speech.AutoplayDelayMs > 5000 {
		errs = append(errs, ValidationError{
			Field:   "speech.autoplay_delay_ms",
			Message: fmt.Sprintf("must be 0-5000, got %d", c.Speech.AutoplayDelayMs),
		})
	}

	if c.Capture.FrameRate < 1 || c.Capture.FrameRate > 60 {
		errs = append(errs, ValidationError{
			Field:   "capture.frame_rate",
			Message: fmt.Sprintf("must be 1-60, got %d", c.Capture.FrameRate),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DARKAI_BACKEND_URL: overrides backend.url
//   - DARKAI_SESSION_ID: overrides backend.session_id
//   - DARKAI_TIMEOUT_SECS: overrides backend.timeout_secs
//   - DARKAI_ELEVENLABS_KEY: overrides speech.api_key
//   - DARKAI_AUTOPLAY_DELAY_MS: overrides speech.autoplay_delay_ms
//   - DARKAI_FFMPEG: overrides capture.ffmpeg_path
//   - DARKAI_DISPLAY: overrides capture.display
//   - DARKAI_LOG_LEVEL: overrides log.level
//   - DARKAI_ARCHIVE: set to "0" or "false" to disable the local archive
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DARKAI_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("DARKAI_SESSION_ID"); v != "" {
		c.Backend.SessionID = v
	}
	if v := os.Getenv("DARKAI_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("DARKAI_ELEVENLABS_KEY"); v != "" {
		c.Speech.APIKey = v
	}
	if v := os.Getenv("DARKAI_AUTOPLAY_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Speech.AutoplayDelayMs = ms
		}
	}
	if v := os.Getenv("DARKAI_FFMPEG"); v != "" {
		c.Capture.FFmpegPath = v
	}
	if v := os.Getenv("DARKAI_DISPLAY"); v != "" {
		c.Capture.Display = v
	}
	if v := os.Getenv("DARKAI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DARKAI_ARCHIVE"); v != "" {
		c.Archive.Enabled = !(v == "0" || strings.ToLower(v) == "false")
	}
}
