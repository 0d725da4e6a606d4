package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Config struct {
	// Host defaults to loopback: the bridge hands out the session token and
	// API key, so it must not be reachable from other machines.
	Host         string `env:"HOST,          default=127.0.0.1"`
	Port         string `env:"PORT,          default=8080"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	SessionStore string `env:"SESSION_STORE, default=memory"`

	Noroff NoroffConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

type NoroffConfig struct {
	BaseURL string        `env:"NOROFF_API_BASE_URL, default=https://v2.api.noroff.dev"`
	Timeout time.Duration `env:"NOROFF_HTTP_TIMEOUT, default=15s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=holidaze"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,         default=localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB,           default=0"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX, default=holidaze:session"`
}

// Addr is the listen address of the bridge.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsProduction reports whether pretty console logging should be disabled.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	switch cfg.SessionStore {
	case StoreMemory, StoreRedis, StoreMongo:
	default:
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.SessionStore)
	}
	return &cfg, nil
}
