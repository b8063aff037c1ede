package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vango-dev/attrsync/internal/errors"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "attrsync.json"

	// DefaultAddress is the default live server address.
	DefaultAddress = ":7070"

	// DefaultReadLimit is the default maximum WebSocket message size.
	DefaultReadLimit = 64 * 1024

	// DefaultWriteTimeout is the default frame write timeout.
	DefaultWriteTimeout = "10s"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "attrsync"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "attrsync"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config represents the complete attrsync.json configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Strategies pins a strategy kind for attribute names
	// ("default", "tokenset", "boolean", "value", "namespaced").
	Strategies map[string]string `json:"strategies,omitempty"`

	// Namespaces maps qualified-name prefixes to namespace URIs for the
	// namespaced strategy. xlink is always known.
	Namespaces map[string]string `json:"namespaces,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty"`

	// ReadLimit is the maximum size of one incoming message in bytes.
	ReadLimit int64 `json:"readLimit,omitempty"`

	// WriteTimeout bounds each frame write (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Server: ServerConfig{
			Address:      DefaultAddress,
			ReadLimit:    DefaultReadLimit,
			WriteTimeout: DefaultWriteTimeout,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for attrsync.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is Load, falling back to defaults when the directory has no
// attrsync.json.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E104").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E104").WithDetail(err.Error()).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E104").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E104").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E104").WithDetail(err.Error()).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.ReadLimit < 0 {
		return errors.New("E103").
			WithDetail("server.readLimit must not be negative")
	}
	if c.Server.WriteTimeout != "" {
		if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
			return errors.New("E103").
				WithDetailf("server.writeTimeout %q: %v", c.Server.WriteTimeout, err).
				WithSuggestion(`Use a Go duration such as "10s"`)
		}
	}
	for _, name := range sortedKeys(c.Strategies) {
		if _, err := ParseKind(c.Strategies[name]); err != nil {
			return err.WithAttribute(name)
		}
	}
	for _, prefix := range sortedKeys(c.Namespaces) {
		if prefix == "" || c.Namespaces[prefix] == "" {
			return errors.New("E103").
				WithDetailf("namespace %q must have a non-empty prefix and URI", prefix)
		}
	}
	return nil
}

// WriteTimeoutDuration returns Server.WriteTimeout parsed. Invalid values
// yield zero.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ReconcileOptions converts the strategy and namespace settings to
// reconciler options. The configuration must have been validated.
func (c *Config) ReconcileOptions() []reconcile.Option {
	var opts []reconcile.Option
	for _, prefix := range sortedKeys(c.Namespaces) {
		opts = append(opts, reconcile.WithAttributeNamespace(prefix, c.Namespaces[prefix]))
	}
	for _, name := range sortedKeys(c.Strategies) {
		kind, _ := ParseKind(c.Strategies[name])
		opts = append(opts, reconcile.WithStrategy(name, kind))
	}
	return opts
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New("E103").
		WithDetailf("unknown log level %q", s).
		WithSuggestion("Use one of debug, info, warn, error")
}

// ParseKind parses a strategy kind name as printed by reconcile.Kind.String.
func ParseKind(s string) (reconcile.Kind, *errors.Error) {
	for k := reconcile.KindDefault; k.Valid(); k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.New("E102").WithDetailf("%q", s)
}

// Exists checks if a config file exists in the directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
