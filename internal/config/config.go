// Package config loads the optional YAML configuration file.
//
// The file supports ${VAR} environment expansion and Go duration strings,
// and is checked against an embedded CUE schema before it is decoded.
// Command-line flags take precedence over anything set here.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blastdb/internal/qblast"
	"github.com/roach88/blastdb/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config is the complete blastdb configuration.
type Config struct {
	DB          string        `yaml:"db"`
	MetricsFile string        `yaml:"metrics_file"`
	QBlast      QBlastConfig  `yaml:"qblast"`
	Poll        PollConfig    `yaml:"poll"`
	Logging     LoggingConfig `yaml:"logging"`
}

// QBlastConfig configures the remote service client.
type QBlastConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
	Tool     string `yaml:"tool"`
	Email    string `yaml:"email"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// PollConfig configures status polling.
type PollConfig struct {
	Interval   time.Duration `yaml:"-"`
	MaxWait    time.Duration `yaml:"-"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"-"`
	Jitter     float64       `yaml:"jitter"`

	IntervalRaw   string `yaml:"interval"`
	MaxWaitRaw    string `yaml:"max_wait"`
	RetryDelayRaw string `yaml:"retry_delay"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DB: store.DefaultPath,
		QBlast: QBlastConfig{
			URL:      qblast.DefaultURL,
			Database: qblast.DefaultDatabase,
			Tool:     "blastdb",
			Timeout:  2 * time.Minute,
		},
		Poll: PollConfig{
			Interval:   qblast.DefaultInterval,
			Attempts:   3,
			RetryDelay: 5 * time.Second,
			Jitter:     0.1,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of Default. Environment variables written as
// ${VAR} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse([]byte(expandEnvVars(string(data))))
}

// Parse decodes already-expanded YAML on top of Default.
func Parse(data []byte) (*Config, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := parseDurations(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values. Unset
// variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// checkSchema unifies the document with #Config. Unknown keys, wrong types
// and malformed durations are rejected here.
func checkSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if doc == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"qblast.timeout", cfg.QBlast.TimeoutRaw, &cfg.QBlast.Timeout},
		{"poll.interval", cfg.Poll.IntervalRaw, &cfg.Poll.Interval},
		{"poll.max_wait", cfg.Poll.MaxWaitRaw, &cfg.Poll.MaxWait},
		{"poll.retry_delay", cfg.Poll.RetryDelayRaw, &cfg.Poll.RetryDelay},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db is required")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.MaxWait < 0 {
		return fmt.Errorf("poll.max_wait must not be negative")
	}
	if c.Poll.Attempts < 1 {
		return fmt.Errorf("poll.attempts must be at least 1")
	}
	if c.Poll.Jitter < 0 || c.Poll.Jitter >= 1 {
		return fmt.Errorf("poll.jitter must be in [0, 1)")
	}
	if c.QBlast.Timeout <= 0 {
		return fmt.Errorf("qblast.timeout must be positive")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ClientOptions maps the qblast section onto client options.
func (c *Config) ClientOptions(logger *slog.Logger) qblast.Options {
	return qblast.Options{
		URL:      c.QBlast.URL,
		Database: c.QBlast.Database,
		Tool:     c.QBlast.Tool,
		Email:    c.QBlast.Email,
		Timeout:  c.QBlast.Timeout,
		Logger:   logger,
	}
}

// PollerConfig maps the poll section onto the poller's settings.
func (c *Config) PollerConfig() qblast.PollConfig {
	return qblast.PollConfig{
		Interval:   c.Poll.Interval,
		MaxWait:    c.Poll.MaxWait,
		Attempts:   c.Poll.Attempts,
		RetryDelay: c.Poll.RetryDelay,
		Jitter:     c.Poll.Jitter,
	}
}

// SlogLevel converts Level to a slog.Level. Empty means info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", l.Level)
}
