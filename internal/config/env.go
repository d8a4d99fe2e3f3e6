package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// Backend selects where tasks and agents live: "blob" or "postgres".
	Backend string `envconfig:"BACKEND" default:"blob"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".agentboard/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"agentboard/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	// Watch reloads sessions when files under BaseDir change. Local storage only.
	Watch bool `envconfig:"WATCH_STORAGE" default:"true"`
}

type DatabaseEnv struct {
	URL string `envconfig:"DATABASE_URL"`
}

type AuthEnv struct {
	Enabled            bool          `envconfig:"AUTH_ENABLED" default:"false"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	LoginRatePerMinute int           `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
}

type SessionEnv struct {
	IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
}

type Env struct {
	BaseEnv
	StorageEnv
	DatabaseEnv
	AuthEnv
	SessionEnv
}

const namespace = "AGENTBOARD"

const (
	BackendBlob     = "blob"
	BackendPostgres = "postgres"
)

// LoadEnv reads an optional .env file from the working directory and then
// the AGENTBOARD_* environment.
func LoadEnv() (*Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.Backend {
	case BackendBlob:
	case BackendPostgres:
		if e.DatabaseEnv.URL == "" {
			return errors.New("AGENTBOARD_DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", e.Backend)
	}
	if e.AuthEnv.Enabled && e.AuthEnv.JWTSecret == "" {
		return errors.New("AGENTBOARD_JWT_SECRET is required when auth is enabled")
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}
