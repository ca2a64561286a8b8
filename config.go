package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const configDirName = ".dbgrid-tui"

// LookupFunc abstracts os.LookupEnv so tests can feed overrides from a map.
type LookupFunc func(key string) (string, bool)

type AppConfig struct {
	PageSize     int    `json:"page_size"`
	MaxFieldSize int    `json:"max_field_size"`
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file,omitempty"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		PageSize:     DefaultPageSize,
		MaxFieldSize: DefaultMaxFieldSize,
		LogLevel:     "info",
	}
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), configDirName)
}

// LoadAppConfig layers the config file over the defaults and DBGRID_*
// environment variables over the file. A missing file is not an error.
func LoadAppConfig(lookup LookupFunc) (AppConfig, error) {
	cfg := DefaultAppConfig()

	path := filepath.Join(configDir(), "config.json")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyInt(lookup, "DBGRID_PAGE_SIZE", &cfg.PageSize); err != nil {
		return cfg, err
	}
	if err := applyInt(lookup, "DBGRID_MAX_FIELD_SIZE", &cfg.MaxFieldSize); err != nil {
		return cfg, err
	}
	if err := applyString(lookup, "DBGRID_LOG_LEVEL", &cfg.LogLevel); err != nil {
		return cfg, err
	}
	if err := applyString(lookup, "DBGRID_LOG_FILE", &cfg.LogFile); err != nil {
		return cfg, err
	}

	if cfg.PageSize < MinPageSize {
		cfg.PageSize = MinPageSize
	}
	if cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.MaxFieldSize <= 0 {
		cfg.MaxFieldSize = DefaultMaxFieldSize
	}
	return cfg, nil
}

func SaveAppConfig(cfg AppConfig) error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// newLogger builds the application logger. Stdout belongs to the terminal UI,
// so logs go to a file; with no file configured everything is discarded.
func newLogger(cfg AppConfig) (*slog.Logger, io.Closer, error) {
	level := parseLogLevel(cfg.LogLevel)

	path := cfg.LogFile
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(configDir(), path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler), f, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}
