package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Redis configuration
	Redis RedisConfig `env:",prefix=REDIS_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Logging configuration
	Log LogConfig `env:",prefix=LOG_"`

	// Lifecycle sweep scheduling
	Scheduler SchedulerConfig `env:",prefix=SCHEDULER_"`

	// Request rate limiting
	RateLimit RateLimitConfig `env:",prefix=RATE_LIMIT_"`

	// Discount presentation defaults
	Discount DiscountConfig `env:",prefix=DISCOUNT_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `env:"PORT,default=8080"`
	Host            string        `env:"HOST,default=0.0.0.0"`
	ReadTimeout     int           `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout    int           `env:"WRITE_TIMEOUT,default=30"` // seconds
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Driver   string `env:"DRIVER,default=postgres"` // postgres or memory
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=promo"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
	Migrate  bool   `env:"MIGRATE,default=true"`
}

// RedisConfig holds the active campaign cache configuration
type RedisConfig struct {
	Enabled  bool          `env:"ENABLED,default=false"`
	Addr     string        `env:"ADDR,default=localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB,default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL,default=5s"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `env:"LEVEL,default=info"`
	Format string `env:"FORMAT,default=json"` // json or console
}

// SchedulerConfig controls the periodic lifecycle sweeps. The interval has to be
// shorter than the shortest campaign window the business runs.
type SchedulerConfig struct {
	Enabled       bool          `env:"ENABLED,default=true"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=30s"`
	LockTTL       time.Duration `env:"LOCK_TTL,default=25s"`
}

// RateLimitConfig holds token bucket settings for the RPC surface
type RateLimitConfig struct {
	Enabled bool    `env:"ENABLED,default=false"`
	RPS     float64 `env:"RPS,default=500"`
	Burst   int     `env:"BURST,default=100"`
}

// DiscountConfig holds fallbacks used when a campaign leaves its badge empty
type DiscountConfig struct {
	DefaultBadgeText          string `env:"DEFAULT_BADGE_TEXT,default=Special Offer"`
	DefaultBadgeTextLocalized string `env:"DEFAULT_BADGE_TEXT_LOCALIZED,default=Special Offer"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith loads configuration from an arbitrary lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.App.IsProduction() && c.Database.Driver == "memory" {
		return fmt.Errorf("DB_DRIVER memory is not allowed in production")
	}
	if c.Scheduler.Enabled && c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("SCHEDULER_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// LogLevel is LOG_LEVEL, forced to debug when APP_DEBUG is set
func (c *Config) LogLevel() string {
	if c.App.Debug {
		return "debug"
	}
	return c.Log.Level
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
