// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
)

// Registry drivers selectable with REGISTRY_DRIVER.
const (
	RegistryMariaDB = "mariadb"
	RegistryMemory  = "memory"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string `env:"ENV" envDefault:"development"`

	// Port is the HTTP listen port.
	Port int `env:"PORT" envDefault:"8080"`

	// BaseURL is the public-facing URL used for links and CORS.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,::1/128,fd00::/8"`

	// CORSOrigins may call /api from another origin. Defaults to BaseURL.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// are read from separate env vars so orchestrators can manage each one
// independently. DATABASE_URL takes precedence when set.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format. If no port is
	// specified, 3306 is appended automatically.
	Host     string `env:"DB_HOST" envDefault:"localhost:3306"`
	User     string `env:"DB_USER" envDefault:"crm"`
	Password string `env:"DB_PASSWORD" envDefault:"crm"`
	Name     string `env:"DB_NAME" envDefault:"crm"`

	// URL bypasses the individual fields when non-empty.
	URL string `env:"DATABASE_URL"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"db/migrations"`
}

// DSN returns the go-sql-driver/mysql connection string. The driver's
// FormatDSN handles special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

// AuthConfig holds authentication and principal registry settings.
type AuthConfig struct {
	// SecretKey signs CSRF tokens. Must be 32+ characters
	// in production.
	SecretKey string `env:"SECRET_KEY"`

	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// RegistryDriver selects where credential records live: "mariadb" or
	// "memory".
	RegistryDriver string `env:"REGISTRY_DRIVER" envDefault:"mariadb"`

	// SeedDefaultUsers inserts the bootstrap principals into an empty
	// registry on startup.
	SeedDefaultUsers bool `env:"SEED_DEFAULT_USERS" envDefault:"false"`

	// LoginRatePerMinute caps POST /login attempts per client IP.
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if variables are malformed or production requirements
// are not met.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces cross-field rules that struct tags can't express.
func (c *Config) validate() error {
	switch c.Auth.RegistryDriver {
	case RegistryMariaDB, RegistryMemory:
	default:
		return fmt.Errorf("REGISTRY_DRIVER must be %q or %q, got %q",
			RegistryMariaDB, RegistryMemory, c.Auth.RegistryDriver)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Auth.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}

	if c.IsProduction() {
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(c.Auth.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if c.Auth.RegistryDriver == RegistryMemory {
			return fmt.Errorf("REGISTRY_DRIVER=memory is not allowed in production")
		}
	}

	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{c.BaseURL}
	}

	// Dev-only default so local runs work without a .env file.
	if c.Auth.SecretKey == "" {
		c.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" and its common variants.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}
