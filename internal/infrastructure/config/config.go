package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends selectable through PANEL_STORAGE.
const (
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// ClientConfig drives the panel CLI.
type ClientConfig struct {
	Origin        string        `env:"PANEL_ORIGIN,         default=http://localhost:5000"`
	APIPrefix     string        `env:"PANEL_API_PREFIX,     default=/api"`
	Timeout       time.Duration `env:"PANEL_TIMEOUT,        default=15s"`
	RedirectDelay time.Duration `env:"PANEL_REDIRECT_DELAY, default=500ms"`

	Storage StorageConfig
	Log     LogConfig
}

type StorageConfig struct {
	Backend   string `env:"PANEL_STORAGE,      default=bolt"`
	Path      string `env:"PANEL_STORAGE_PATH"`
	RedisAddr string `env:"PANEL_REDIS_ADDR,   default=localhost:6379"`
	RedisDB   int    `env:"PANEL_REDIS_DB,     default=0"`
	// RedisTTL bounds idle sessions kept in Redis; zero keeps them.
	RedisTTL time.Duration `env:"PANEL_REDIS_TTL, default=0s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=warn"`
	Pretty bool   `env:"LOG_PRETTY, default=true"`
}

// MockAPIConfig drives the development backend.
type MockAPIConfig struct {
	Port      string        `env:"PORT,       default=5000"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=8h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	LoginRatePerMin int      `env:"LOGIN_RATE_PER_MIN, default=10"`
	CORSOrigins     []string `env:"CORS_ORIGINS,       default=*"`

	Mongo MongoConfig
	Seed  SeedConfig
}

type MongoConfig struct {
	// URI empty keeps users in memory.
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=distribuidora"`
}

type SeedConfig struct {
	Username string `env:"SEED_ADMIN_USER,     default=admin"`
	Password string `env:"SEED_ADMIN_PASSWORD, default=admin123"`
}

// LoadClient reads the CLI configuration from an optional .env file and the
// environment.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	return LoadClientWith(ctx, lookuper())
}

// LoadClientWith is LoadClient with an explicit variable source.
func LoadClientWith(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.Storage.Backend {
	case StorageBolt, StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("config: PANEL_STORAGE must be bolt, redis or memory, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}
	if cfg.RedirectDelay < 0 {
		return nil, errors.New("config: PANEL_REDIRECT_DELAY must not be negative")
	}
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")
	return &cfg, nil
}

// LoadMockAPI reads the backend configuration.
func LoadMockAPI(ctx context.Context) (*MockAPIConfig, error) {
	return LoadMockAPIWith(ctx, lookuper())
}

func LoadMockAPIWith(ctx context.Context, l envconfig.Lookuper) (*MockAPIConfig, error) {
	var cfg MockAPIConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, errors.New("config: JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	if cfg.LoginRatePerMin <= 0 {
		return nil, errors.New("config: LOGIN_RATE_PER_MIN must be positive")
	}
	return &cfg, nil
}

// lookuper loads .env (if any) into the process environment first.
func lookuper() envconfig.Lookuper {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
	}
	return envconfig.OsLookuper()
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "panel", "storage.db")
	}
	return filepath.Join(home, ".panel", "storage.db")
}
