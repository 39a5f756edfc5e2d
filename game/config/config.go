package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// StartingPosition is the position token handed to every new session unless
// INITIAL_POSITION overrides it.
const StartingPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrInvalidConfig = errors.New("invalid configuration")

// RateLimitConfig defines per-connection inbound throttling.
type RateLimitConfig struct {
	Burst     int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"10"`
}

// NgrokConfig controls the optional public tunnel.
type NgrokConfig struct {
	Enabled   bool   `env:"NGROK_ENABLED"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`
}

// Config holds the server settings.
type Config struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"8080"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" envDefault:"4096"`
	SendBuffer      int           `env:"SEND_BUFFER" envDefault:"256"`
	InitialPosition string        `env:"INITIAL_POSITION"`
	MaxRoomIDLength int           `env:"MAX_ROOM_ID_LENGTH" envDefault:"64"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Debug           bool          `env:"DEBUG"`
	RateLimit       RateLimitConfig
	Ngrok           NgrokConfig
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Host:            "localhost",
		Port:            8080,
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  4096,
		SendBuffer:      256,
		InitialPosition: StartingPosition,
		MaxRoomIDLength: 64,
		ShutdownTimeout: 10 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:     20,
			PerSecond: 10,
		},
	}
}

// FromEnv parses the configuration from environment variables and validates it.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Ngrok.AuthToken == "" {
		cfg.Ngrok.AuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if cfg.InitialPosition == "" {
		cfg.InitialPosition = StartingPosition
	}
	cfg.AllowedOrigins = NormalizeOrigins(cfg.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowAllOrigins reports whether the origin allow-list contains "*".
func (c Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer))
	}
	if c.MaxRoomIDLength <= 0 {
		errs = append(errs, fmt.Errorf("max room id length must be positive, got %d", c.MaxRoomIDLength))
	}
	if c.RateLimit.Burst <= 0 || c.RateLimit.PerSecond <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got burst=%d rate=%g", c.RateLimit.Burst, c.RateLimit.PerSecond))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// NormalizeOrigins lowercases scheme and host and drops entries that are not
// origins. "*" is kept verbatim.
func NormalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			out = append(out, trimmed)
			continue
		}
		if normalized, ok := NormalizeOrigin(trimmed); ok {
			out = append(out, normalized)
		}
	}
	return out
}

// NormalizeOrigin reduces an origin to lowercase scheme://host form.
func NormalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
