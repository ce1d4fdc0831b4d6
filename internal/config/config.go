package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends for the bookmark slot.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

type Config struct {
	// ex: ":8080"
	ListenPort      string        `env:"BOOKMARKER_LISTEN_PORT" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"BOOKMARKER_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// "debug" | "info" | "warn" | "error"
	LogLevel string `env:"BOOKMARKER_LOG_LEVEL" envDefault:"info"`
	// true => zap dev (color), false => zap prod (JSON)
	PrettyLog bool `env:"BOOKMARKER_PRETTY_LOG" envDefault:"true"`

	// "memory" | "sqlite" | "redis"
	Storage string `env:"BOOKMARKER_STORAGE" envDefault:"sqlite"`
	SlotKey string `env:"BOOKMARKER_SLOT_KEY" envDefault:"bookmarks"`
	// sqlite path or libsql:// URL
	DatabaseURL string `env:"BOOKMARKER_DATABASE_URL" envDefault:"file:bookmarker.db"`
	// IANA zone deciding what "added today" means
	Timezone        string `env:"BOOKMARKER_TIMEZONE" envDefault:"Local"`
	FaviconEndpoint string `env:"BOOKMARKER_FAVICON_ENDPOINT" envDefault:"https://www.google.com/s2/favicons"`
	// browser origins allowed to call the API, empty = any
	AllowedOrigins []string `env:"BOOKMARKER_ALLOWED_ORIGINS" envSeparator:","`
	// trust CF-Connecting-IP / X-Forwarded-For / X-Real-IP for access logs
	TrustProxy bool `env:"BOOKMARKER_TRUST_PROXY" envDefault:"false"`

	// Homepage bookmarks.yaml synced into the store, empty = disabled
	HomepageBookmarks    string        `env:"BOOKMARKER_HOMEPAGE_BOOKMARKS"`
	HomepageSyncInterval time.Duration `env:"BOOKMARKER_HOMEPAGE_SYNC_INTERVAL" envDefault:"10m"`

	// Redis (only when Storage == "redis")
	RedisAddr     string `env:"BOOKMARKER_REDIS_ADDR"`
	RedisUser     string `env:"BOOKMARKER_REDIS_USERNAME" envDefault:"default"`
	RedisPassword string `env:"BOOKMARKER_REDIS_PASSWORD"`
	RedisDB       int    `env:"BOOKMARKER_REDIS_DB" envDefault:"0"`

	RedisDT             time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	RedisRT             time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	RedisWT             time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	RedisMaxWait        time.Duration `env:"REDIS_MAX_WAIT" envDefault:"10s"`
	RedisPingTimeout    time.Duration `env:"REDIS_PING_TIMEOUT" envDefault:"5s"`
	RedisPoolSize       int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// initial wait between retries, grows exponentially
	RedisRetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	RedisWarnThreshold int           `env:"REDIS_WARN_THRESHOLD" envDefault:"3"`

	location *time.Location
}

// Load reads .env (if any) and the environment. Invalid configuration is fatal.
func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg, err := Parse()
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
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
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageMemory, StorageSQLite:
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("BOOKMARKER_REDIS_ADDR is required when BOOKMARKER_STORAGE=redis")
		}
	default:
		return fmt.Errorf("invalid BOOKMARKER_STORAGE %q (want memory, sqlite or redis)", c.Storage)
	}

	if strings.TrimSpace(c.SlotKey) == "" {
		return fmt.Errorf("BOOKMARKER_SLOT_KEY must not be empty")
	}
	if c.Storage == StorageSQLite && c.DatabaseURL == "" {
		return fmt.Errorf("BOOKMARKER_DATABASE_URL must not be empty")
	}

	if c.HomepageBookmarks != "" && c.HomepageSyncInterval <= 0 {
		return fmt.Errorf("BOOKMARKER_HOMEPAGE_SYNC_INTERVAL must be > 0, got %v", c.HomepageSyncInterval)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid BOOKMARKER_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	return nil
}

// Location is the zone used to decide what "today" means.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	if i := strings.Index(cp.DatabaseURL, "authToken="); i >= 0 {
		cp.DatabaseURL = cp.DatabaseURL[:i] + "authToken=***REDACTED***"
	}
	return cp
}
