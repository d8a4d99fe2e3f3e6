package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, ":3100", env.Addr())
	assert.Equal(t, BackendBlob, env.Backend)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.False(t, env.AuthEnv.Enabled)
	assert.Equal(t, 30*time.Minute, env.SessionEnv.IdleTTL)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_Validation(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("AGENTBOARD_BACKEND", "postgres")
	_, err := LoadEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("AGENTBOARD_DATABASE_URL", "postgres://localhost/agentboard")
	t.Setenv("AGENTBOARD_AUTH_ENABLED", "true")
	_, err = LoadEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("AGENTBOARD_JWT_SECRET", "s3cret")
	t.Setenv("AGENTBOARD_LOG_LEVEL", "warn")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
}
