package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"

	"github.com/prperemyshlev/pettracker-client/internal/repository"
)

type Config struct {
	API      APIConfig      `env:",prefix=API_"`
	Store    StoreConfig    `env:",prefix=STORE_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Tracker  TrackerConfig  `env:",prefix=TRACKER_"`
	Status   StatusConfig   `env:",prefix=STATUS_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
	LogLevel string         `env:"LOG_LEVEL,default=info"`
}

type APIConfig struct {
	BaseURL        string   `env:"BASE_URL,default=http://localhost:8080"`
	Timeout        Duration `env:"TIMEOUT,default=15s"`
	RefreshTimeout Duration `env:"REFRESH_TIMEOUT,default=15s"`
	UserAgent      string   `env:"USER_AGENT,default=pettracker-cli"`
}

type StoreConfig struct {
	Backend   string `env:"BACKEND,default=file"`
	FilePath  string `env:"FILE_PATH"`
	Namespace string `env:"NAMESPACE,default=pettracker.auth"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=pettracker"`
	Password string `env:"PASSWORD,default=pettracker_password"`
	DBName   string `env:"DB,default=pettracker"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type TrackerConfig struct {
	PollInterval Duration `env:"POLL_INTERVAL,default=10s"`
	DeviceIDs    []int64  `env:"DEVICE_IDS"`
	Concurrency  int      `env:"CONCURRENCY,default=4"`
}

type StatusConfig struct {
	Host         string   `env:"HOST,default=127.0.0.1"`
	Port         string   `env:"PORT,default=8089"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Address returns the listen address of the status server
func (s StatusConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWithLookuper(ctx, envconfig.OsLookuper())
}

// LoadWithLookuper loads configuration from lookuper
func LoadWithLookuper(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("API_BASE_URL is invalid: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("API_BASE_URL must use http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("API_BASE_URL must include a host"))
	}

	if !repository.KnownBackend(c.Store.Backend) {
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of memory, file, redis, postgres", c.Store.Backend))
	}

	if c.Tracker.PollInterval.Duration <= 0 {
		errs = append(errs, errors.New("TRACKER_POLL_INTERVAL must be positive"))
	}
	if c.API.Timeout.Duration < 0 || c.API.RefreshTimeout.Duration < 0 {
		errs = append(errs, errors.New("API timeouts must not be negative"))
	}

	return errors.Join(errs...)
}
