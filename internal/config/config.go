// Package config loads truequote settings from ~/.truequote/config.yaml,
// TRUEQUOTE_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/merlin-energy/truequote/internal/engine/cache"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/validation"
)

// EnvPrefix is prepended to every environment override, e.g.
// TRUEQUOTE_LOGGING_LEVEL=debug.
const EnvPrefix = "TRUEQUOTE"

// HomeEnv overrides the configuration directory.
const HomeEnv = "TRUEQUOTE_HOME"

// Server defaults.
const (
	DefaultAddr         = ":8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// MaxParallelism bounds validation.parallelism.
const MaxParallelism = 64

// Configuration errors.
var (
	ErrInvalidLogLevel         = errors.New("logging level must be one of trace, debug, info, warn, error")
	ErrInvalidLogFormat        = errors.New("logging format must be 'json' or 'console'")
	ErrConflictingTemplateSets = errors.New("templates.path and templates.dsn are mutually exclusive")
	ErrParallelismOutOfRange   = errors.New("validation parallelism must be between 1 and 64")
	ErrServerAddrRequired      = errors.New("server address is required")
	ErrTimeoutNotPositive      = errors.New("server timeouts must be positive")
)

// Config is the full truequote configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Templates  TemplatesConfig  `mapstructure:"templates"  yaml:"templates"`
	Pricing    PricingConfig    `mapstructure:"pricing"    yaml:"pricing"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"`
}

// LoggingConfig selects log level, format and destination.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file"   yaml:"file,omitempty"`
}

// TemplatesConfig selects where industry templates come from. With neither
// Path nor DSN set the embedded templates are used.
type TemplatesConfig struct {
	Path            string `mapstructure:"path"              yaml:"path,omitempty"`
	DSN             string `mapstructure:"dsn"               yaml:"dsn,omitempty"`
	CacheEnabled    bool   `mapstructure:"cache_enabled"     yaml:"cache_enabled"`
	CacheDir        string `mapstructure:"cache_dir"         yaml:"cache_dir,omitempty"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// PricingConfig points at an alternative pricing table.
type PricingConfig struct {
	TablePath string `mapstructure:"table_path" yaml:"table_path,omitempty"`
}

// ValidationConfig overrides the validation policy defaults.
type ValidationConfig struct {
	// WarnTolerance and FailTolerance replace the default sum tolerance when
	// non-zero.
	WarnTolerance      float64                         `mapstructure:"warn_tolerance"      yaml:"warn_tolerance,omitempty"`
	FailTolerance      float64                         `mapstructure:"fail_tolerance"      yaml:"fail_tolerance,omitempty"`
	IndustryTolerances map[string]validation.Tolerance `mapstructure:"industry_tolerances" yaml:"industry_tolerances,omitempty"`
	// Relaxed industries are not validation-required even on a v1 calculator.
	Relaxed      []string `mapstructure:"relaxed"       yaml:"relaxed,omitempty"`
	Skip         []string `mapstructure:"skip"          yaml:"skip,omitempty"`
	Parallelism  int      `mapstructure:"parallelism"   yaml:"parallelism"`
	FixturesPath string   `mapstructure:"fixtures_path" yaml:"fixtures_path,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"          yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	Metrics      bool          `mapstructure:"metrics"       yaml:"metrics"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: logging.FormatConsole},
		Templates: TemplatesConfig{
			CacheEnabled:    true,
			CacheTTLSeconds: cache.DefaultTTLSeconds,
		},
		Validation: ValidationConfig{Parallelism: 1},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			Metrics:      true,
		},
	}
}

// Dir returns the configuration directory: $TRUEQUOTE_HOME or ~/.truequote.
func Dir() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(userHome, ".truequote"), nil
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml in Dir() is read when present. Environment variables override
// file values, and the result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("templates.path", d.Templates.Path)
	v.SetDefault("templates.dsn", d.Templates.DSN)
	v.SetDefault("templates.cache_enabled", d.Templates.CacheEnabled)
	v.SetDefault("templates.cache_dir", d.Templates.CacheDir)
	v.SetDefault("templates.cache_ttl_seconds", d.Templates.CacheTTLSeconds)
	v.SetDefault("pricing.table_path", d.Pricing.TablePath)
	v.SetDefault("validation.warn_tolerance", d.Validation.WarnTolerance)
	v.SetDefault("validation.fail_tolerance", d.Validation.FailTolerance)
	v.SetDefault("validation.parallelism", d.Validation.Parallelism)
	v.SetDefault("validation.fixtures_path", d.Validation.FixturesPath)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.metrics", d.Server.Metrics)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Templates.Validate(); err != nil {
		return err
	}
	if err := c.Validation.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// Validate checks level and format.
func (l LoggingConfig) Validate() error {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" || level > zerolog.ErrorLevel {
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, l.Level)
	}
	if l.Format != logging.FormatJSON && l.Format != logging.FormatConsole {
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, l.Format)
	}
	return nil
}

// LoggerConfig converts l for logging.NewLoggerWithPath.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.File = l.File
	return cfg
}

// Validate rejects conflicting sources and out-of-range cache TTLs.
func (t TemplatesConfig) Validate() error {
	if t.Path != "" && t.DSN != "" {
		return ErrConflictingTemplateSets
	}
	if t.CacheEnabled {
		if err := cache.ValidateTTL(t.CacheTTLSeconds); err != nil {
			return fmt.Errorf("templates.cache_ttl_seconds: %w", err)
		}
	}
	return nil
}

// Validate checks tolerances and parallelism.
func (v ValidationConfig) Validate() error {
	if v.Parallelism < 1 || v.Parallelism > MaxParallelism {
		return fmt.Errorf("%w: got %d", ErrParallelismOutOfRange, v.Parallelism)
	}
	if err := v.Policy().Validate(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}

// Policy returns the default validation policy with v's overrides applied.
func (v ValidationConfig) Policy() validation.Policy {
	p := validation.DefaultPolicy()
	if v.WarnTolerance != 0 {
		p.DefaultTolerance.Warn = v.WarnTolerance
	}
	if v.FailTolerance != 0 {
		p.DefaultTolerance.Fail = v.FailTolerance
	}
	for id, tol := range v.IndustryTolerances {
		p.Tolerances[strings.ToLower(id)] = tol
	}
	if len(v.Relaxed) > 0 {
		p.Relaxed = lowerAll(v.Relaxed)
	}
	if len(v.Skip) > 0 {
		p.Skip = lowerAll(v.Skip)
	}
	return p
}

// Validate checks the listen address and timeouts.
func (s ServerConfig) Validate() error {
	if s.Addr == "" {
		return ErrServerAddrRequired
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return fmt.Errorf("%w: read %s, write %s", ErrTimeoutNotPositive, s.ReadTimeout, s.WriteTimeout)
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
