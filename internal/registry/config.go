package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
)

var (
	// ErrNegativeActiveSlots is returned when the configured slot count is below zero
	ErrNegativeActiveSlots = errors.New("active slots cannot be negative")
	// ErrInvalidLogLevel is returned when the log level cannot be parsed
	ErrInvalidLogLevel = errors.New("invalid log level")
)

const (
	// DefaultActiveSlots is the slot count of a single-SIM device
	DefaultActiveSlots = 1
	// DefaultLogLevel is used when no level is configured
	DefaultLogLevel = "info"
)

// Config represents configuration for a Broker
type Config struct {
	// ActiveSlots is the number of modem slots active at startup
	ActiveSlots int

	// LogLevel is one of debug, info, warn or error
	LogLevel string

	// GrantSecret, when set and Authority is nil, enables JWT grant tokens
	// presented in permission.Caller.Credential
	GrantSecret string

	// Authority decides permission tiers. When nil and no GrantSecret is
	// set, every protected event kind is refused.
	Authority permission.Authority

	// Logger receives broker logs; defaults to a text logger on stderr at LogLevel
	Logger *slog.Logger
}

// envConfig holds the settings that can come from the environment
type envConfig struct {
	ActiveSlots int    `env:"PHONESTATE_ACTIVE_SLOTS" envDefault:"1"`
	LogLevel    string `env:"PHONESTATE_LOG_LEVEL" envDefault:"info"`
	GrantSecret string `env:"PHONESTATE_GRANT_SECRET"`
}

// NewConfig creates a new Broker configuration with safe defaults
func NewConfig(activeSlots int) *Config {
	return &Config{
		ActiveSlots: activeSlots,
		LogLevel:    DefaultLogLevel,
	}
}

// LoadConfigFromEnv reads PHONESTATE_* variables into a new configuration.
func LoadConfigFromEnv() (*Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config := &Config{
		ActiveSlots: ec.ActiveSlots,
		LogLevel:    ec.LogLevel,
		GrantSecret: ec.GrantSecret,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ActiveSlots < 0 {
		return ErrNegativeActiveSlots
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// SetDefaults sets default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Logger == nil {
		c.Logger = c.NewLogger(os.Stderr)
	}
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}

// NewLogger builds a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// authority returns the configured authority, falling back to JWT grants
// when a secret is configured.
func (c *Config) authority() (permission.Authority, error) {
	if c.Authority != nil {
		return c.Authority, nil
	}
	if c.GrantSecret == "" {
		return nil, nil
	}
	jwtAuthority, err := internalpermission.NewJWTAuthority(c.GrantSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create grant authority: %w", err)
	}
	return jwtAuthority, nil
}

// WithActiveSlots sets the initial number of active slots
func (c *Config) WithActiveSlots(n int) *Config {
	c.ActiveSlots = n
	return c
}

// WithLogLevel sets the log level
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// WithGrantSecret enables JWT grant tokens signed with secret
func (c *Config) WithGrantSecret(secret string) *Config {
	c.GrantSecret = secret
	return c
}

// WithAuthority sets the permission authority
func (c *Config) WithAuthority(authority permission.Authority) *Config {
	c.Authority = authority
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}
