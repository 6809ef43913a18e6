package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Engine.MaxRetries)
	require.Equal(t, int64(60000), cfg.Workers.DefaultTimeoutMs)
}

func TestLoad_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("CURRICULUM_DB_PASSWORD", "sekret")
	t.Setenv("CURRICULUM_SERVER_ADDR", ":9090")
	t.Setenv("CURRICULUM_ENGINE_MAX_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sekret", cfg.DB.Password)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 5, cfg.Engine.MaxRetries)
	require.Contains(t, cfg.DSN(), "password=sekret")
}
