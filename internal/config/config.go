package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings read from the environment.
// Empty MongoURI or RedisURI disables that adapter.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"feudlive"`
	RedisURI      string `env:"REDIS_URI"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`
	QuestionDir   string `env:"QUESTION_DIR" envDefault:"questions"`

	RevealDelay           time.Duration `env:"REVEAL_DELAY" envDefault:"2s"`
	LightningAdvanceDelay time.Duration `env:"LIGHTNING_ADVANCE_DELAY" envDefault:"3s"`
	RestartDelay          time.Duration `env:"RESTART_DELAY" envDefault:"1s"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"6h"`
	SweepInterval         time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`

	MaxPlayers  int      `env:"MAX_PLAYERS" envDefault:"10"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"text"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxPlayers < 2 {
		return errors.New("MAX_PLAYERS must be at least 2")
	}
	if c.SessionTTL <= 0 || c.SweepInterval <= 0 {
		return errors.New("SESSION_TTL and SWEEP_INTERVAL must be positive")
	}
	if c.RevealDelay < 0 || c.LightningAdvanceDelay < 0 || c.RestartDelay < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

// RedisAddr returns the Redis host:port, accepting a redis:// URI
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

// MaxPerTeam is the team cap used when players pick a side
func (c *Config) MaxPerTeam() int {
	return c.MaxPlayers / 2
}
