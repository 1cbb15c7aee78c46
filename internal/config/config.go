// Package config handles resolving configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stolasapp/calliope/internal/catalog"
	"github.com/stolasapp/calliope/internal/content"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/service"
)

// Error is a sentinel error string.
type Error string

func (e Error) Error() string { return string(e) }

// Validation errors, joined by [Config.Validate].
const (
	ErrInvalidLogLevel  Error = "log_level must be one of debug, info, warn or error"
	ErrInvalidProxyBase Error = "proxy_base must be an absolute http(s) URL"
	ErrInvalidDomain    Error = "site_domain must be a bare host name"
	ErrInvalidCapacity  Error = "cache_capacity must be at least 1"
	ErrInvalidWorkers   Error = "max_concurrent_renders must be at least 1"
	ErrInvalidTimeout   Error = "render_timeout must be positive"
)

// LogLevel is the minimum level of emitted log records.
type LogLevel string

// Log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Level converts to the slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l LogLevel) valid() bool {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Config is the process configuration.
type Config struct {
	LogLevel             LogLevel      `yaml:"log_level"`
	DevMode              bool          `yaml:"dev_mode"`
	WebAddress           string        `yaml:"web_address"`
	ProxyBase            string        `yaml:"proxy_base"`
	SiteDomain           string        `yaml:"site_domain"`
	CacheCapacity        int           `yaml:"cache_capacity"`
	HighlightStyle       string        `yaml:"highlight_style"`
	MaxConcurrentRenders int           `yaml:"max_concurrent_renders"`
	RenderTimeout        time.Duration `yaml:"render_timeout"`
}

// DefaultPath is the configuration file location when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "calliope.yaml")
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel:             LogLevelInfo,
		DevMode:              false,
		WebAddress:           "localhost:9999",
		ProxyBase:            proxy.DefaultBase,
		SiteDomain:           catalog.DefaultSiteDomain,
		CacheCapacity:        60,
		HighlightStyle:       "",
		MaxConcurrentRenders: 16,
		RenderTimeout:        5 * time.Second,
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults, and
// validates it for completeness.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err = decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the file at path, falling back to [Default] when it
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd // owner only
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd // owner rw access
		return fmt.Errorf("failed to write config file to %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if !c.LogLevel.valid() {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.LogLevel))
	}
	if u, err := url.Parse(c.ProxyBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidProxyBase, c.ProxyBase))
	}
	if c.SiteDomain == "" || strings.ContainsAny(c.SiteDomain, "/:?#@ ") {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidDomain, c.SiteDomain))
	}
	if c.CacheCapacity < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.CacheCapacity))
	}
	if err := content.ValidateHighlightStyle(c.HighlightStyle); err != nil {
		errs = append(errs, err)
	}
	if c.MaxConcurrentRenders < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.MaxConcurrentRenders))
	}
	if c.RenderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.RenderTimeout))
	}
	return errors.Join(errs...)
}

// Rendering returns the service configuration.
func (c *Config) Rendering() service.RenderingConfig {
	return service.RenderingConfig{
		ProxyBase:      c.ProxyBase,
		SiteDomain:     c.SiteDomain,
		CacheCapacity:  c.CacheCapacity,
		HighlightStyle: c.HighlightStyle,
	}
}

// LogValue implements slog.LogValuer.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("log_level", string(c.LogLevel)),
		slog.Bool("dev_mode", c.DevMode),
		slog.String("web_address", c.WebAddress),
		slog.String("proxy_base", c.ProxyBase),
		slog.String("site_domain", c.SiteDomain),
		slog.Int("cache_capacity", c.CacheCapacity),
		slog.String("highlight_style", c.HighlightStyle),
		slog.Int("max_concurrent_renders", c.MaxConcurrentRenders),
		slog.Duration("render_timeout", c.RenderTimeout),
	)
}
