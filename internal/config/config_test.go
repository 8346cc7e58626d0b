package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://0b5ff8b0.uqcloud.net/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Geo.MinIntervalSecs)
	assert.Equal(t, float64(5), cfg.Geo.MinDistanceMeters)
	assert.Equal(t, "sqlite", cfg.Server.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NotEmpty(t, cfg.Identity.DBPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORYPATH_API_JWT", "env-jwt")
	t.Setenv("STORYPATH_API_USERNAME", "s1234567")
	t.Setenv("STORYPATH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-jwt", cfg.API.JWT)
	assert.Equal(t, "s1234567", cfg.API.Username)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
