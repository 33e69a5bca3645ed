package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Upload UploadConfig
	Worker WorkerConfig
	Rate   RateConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=signature_verification"`
	MaxPool  uint64 `env:"MONGO_MAX_POOL, default=20"`
	MinPool  uint64 `env:"MONGO_MIN_POOL, default=5"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type UploadConfig struct {
	// Dir is the uploads root; durable history artifacts live in its
	// "history" subdirectory.
	Dir       string `env:"UPLOAD_DIR,         default=uploads"`
	MaxSizeMB int64  `env:"UPLOAD_MAX_SIZE_MB, default=10"`
}

type WorkerConfig struct {
	Command   string `env:"WORKER_COMMAND, default=python3"`
	Script    string `env:"WORKER_SCRIPT,  default=app.py"`
	ModelsDir string `env:"MODELS_DIR,     default=trained_models"`
}

// RateConfig holds the fixed-window rate limit buckets. Windows and
// thresholds mirror the public abuse profile: auth is strict, status checks
// are permissive, verification spawns a subprocess so it is tightest of all.
type RateConfig struct {
	AuthWindow   time.Duration `env:"RATE_AUTH_WINDOW,   default=15m"`
	AuthMax      int           `env:"RATE_AUTH_MAX,      default=20"`
	APIWindow    time.Duration `env:"RATE_API_WINDOW,    default=1m"`
	APIMax       int           `env:"RATE_API_MAX,       default=100"`
	StatusWindow time.Duration `env:"RATE_STATUS_WINDOW, default=1m"`
	StatusMax    int           `env:"RATE_STATUS_MAX,    default=500"`
	VerifyWindow time.Duration `env:"RATE_VERIFY_WINDOW, default=1m"`
	VerifyMax    int           `env:"RATE_VERIFY_MAX,    default=10"`
}

// Production reports whether the service runs with production hardening
// (secure cookies, strict same-site).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// MaxUploadBytes converts the configured size limit to bytes.
func (c *UploadConfig) MaxUploadBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	if cfg.JWTSecret == "" {
		panic("config: JWT_SECRET must be set")
	}
	return &cfg
}
