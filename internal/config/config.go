package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Env             string
	LogLevel        slog.Level
	OTelEnabled     bool
	ShutdownTimeout time.Duration
	HTTP            HTTPConfig
	Database        DatabaseConfig
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool
	// LogLevel is the GORM logger level: silent, error, warn or info.
	LogLevel string
}

// DSN renders the connection string understood by the pgx driver.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		errs = append(errs, fmt.Errorf("DB_LOG_LEVEL must be one of silent, error, warn, info; got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Load reads .env.<APP_ENV> and .env from the working directory, when
// present, and then builds the configuration from the environment. Variables
// already set in the process environment win over both files.
func Load() (*Config, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	for _, name := range []string{".env." + appEnv, ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	r := &envReader{}
	cfg := &Config{
		Env:             appEnv,
		LogLevel:        r.level("LOG_LEVEL", slog.LevelInfo),
		OTelEnabled:     r.bool("OTEL_ENABLED", false),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 5*time.Second),
		HTTP: HTTPConfig{
			Host:         r.string("HOST", ""),
			Port:         r.int("PORT", 8080),
			ReadTimeout:  r.duration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: r.duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  r.duration("HTTP_IDLE_TIMEOUT", time.Minute),
		},
		Database: DatabaseConfig{
			Host:            r.string("DB_HOST", ""),
			Port:            r.int("DB_PORT", 5432),
			User:            r.string("DB_USER", ""),
			Password:        r.string("DB_PASSWORD", ""),
			Name:            r.string("DB_DATABASE", ""),
			SSLMode:         r.string("DB_SSLMODE", "disable"),
			MaxOpenConns:    r.int("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    r.int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     r.bool("DB_AUTO_MIGRATE", true),
			LogLevel:        strings.ToLower(r.string("DB_LOG_LEVEL", "warn")),
		},
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	return cfg, nil
}

// envReader reads typed variables and collects parse errors so that every
// bad variable is reported at once.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid value for %s=%q: %w", key, value, err))
}

func (r *envReader) string(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *envReader) level(key string, def slog.Level) slog.Level {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, v, err)
		return def
	}
	return lvl
}
