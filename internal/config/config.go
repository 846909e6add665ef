// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Supported values of Config.DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr string `env:"COBILL_ADDR" envDefault:":8080"`

	DBDriver    string `env:"COBILL_DB_DRIVER"    envDefault:"sqlite"`
	DBPath      string `env:"COBILL_DB_PATH"      envDefault:"./data/cobill.db"`
	DatabaseURL string `env:"COBILL_DATABASE_URL"`

	JWTSecret string        `env:"COBILL_JWT_SECRET"`
	JWTTTL    time.Duration `env:"COBILL_JWT_TTL"    envDefault:"24h"`

	CodeLength int             `env:"COBILL_CODE_LENGTH" envDefault:"6"`
	DefaultTip decimal.Decimal `env:"COBILL_DEFAULT_TIP" envDefault:"10.00"`

	// RedisURL enables the cross-instance event relay when set.
	RedisURL     string `env:"COBILL_REDIS_URL"`
	RedisChannel string `env:"COBILL_REDIS_CHANNEL" envDefault:"cobill:events"`

	CORSOrigins       []string `env:"COBILL_CORS_ORIGINS"         envDefault:"*" envSeparator:","`
	WSFramesPerSecond int      `env:"COBILL_WS_FRAMES_PER_SECOND" envDefault:"10"`
	WSQueueSize       int      `env:"COBILL_WS_QUEUE_SIZE"        envDefault:"64"`

	StaticPath      string        `env:"COBILL_STATIC_PATH"`
	ShutdownTimeout time.Duration `env:"COBILL_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be expressed as defaults.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("COBILL_DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("COBILL_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported COBILL_DB_DRIVER %q", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("COBILL_JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("COBILL_JWT_TTL must be positive"))
	}
	if c.CodeLength < 4 {
		errs = append(errs, errors.New("COBILL_CODE_LENGTH must be at least 4"))
	}
	if c.DefaultTip.IsNegative() {
		errs = append(errs, errors.New("COBILL_DEFAULT_TIP must be >= 0"))
	}
	if c.WSFramesPerSecond <= 0 || c.WSQueueSize <= 0 {
		errs = append(errs, errors.New("websocket rate and queue size must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("COBILL_SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}
