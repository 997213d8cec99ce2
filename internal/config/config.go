package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/relaydash/internal/relay"
)

// Config is the resolved client configuration.
type Config struct {
	BackendURL     string
	LogLevel       string
	LogFormat      string
	LogFile        string
	ReconnectDelay time.Duration
	RequestTimeout time.Duration
	LogLimit       int
}

const (
	defaultConfigPath     = "~/.config/relaydash/config.toml"
	defaultBackendURL     = "http://127.0.0.1:8001"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultLogFile        = "~/.local/state/relaydash/relaydash.log"
	defaultReconnectDelay = 3 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultLogLimit       = 50
)

// Environment variables consulted after the file.
const (
	EnvBackendURL       = "RELAYDASH_BACKEND_URL"
	EnvBackendURLLegacy = "BACKEND_URL"
	EnvLogLevel         = "RELAYDASH_LOG_LEVEL"
	EnvLogFile          = "RELAYDASH_LOG_FILE"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackendURL:     defaultBackendURL,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		LogFile:        mustExpand(defaultLogFile),
		ReconnectDelay: defaultReconnectDelay,
		RequestTimeout: defaultRequestTimeout,
		LogLimit:       defaultLogLimit,
	}
}

// Load reads the TOML file at path (default location when empty), then a
// .env file in the working directory, then environment overrides. A missing
// config file or .env is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.readFile(resolved); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BackendURL     string `toml:"backend_url"`
		LogLevel       string `toml:"log_level"`
		LogFormat      string `toml:"log_format"`
		LogFile        string `toml:"log_file"`
		ReconnectDelay string `toml:"reconnect_delay"`
		RequestTimeout string `toml:"request_timeout"`
		LogLimit       int    `toml:"log_limit"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BackendURL); v != "" {
		c.BackendURL = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if d, err := parseDuration("reconnect_delay", raw.ReconnectDelay); err != nil {
		return err
	} else if d > 0 {
		c.ReconnectDelay = d
	}
	if d, err := parseDuration("request_timeout", raw.RequestTimeout); err != nil {
		return err
	} else if d > 0 {
		c.RequestTimeout = d
	}
	if raw.LogLimit > 0 {
		c.LogLimit = raw.LogLimit
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURLLegacy)); v != "" {
		c.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		c.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		c.LogFile = mustExpand(v)
	}
}

// Validate checks the backend URL and the log format.
func (c Config) Validate() error {
	if _, err := relay.ParseBackendURL(c.BackendURL); err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q must be text or json", c.LogFormat)
	}
	return nil
}

// WebSocketURL derives the push channel endpoint from BackendURL.
func (c Config) WebSocketURL() (string, error) {
	return relay.WebSocketURL(c.BackendURL)
}

// parseDuration accepts Go durations ("3s") or bare seconds ("3").
func parseDuration(key, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
