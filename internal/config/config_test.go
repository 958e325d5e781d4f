package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FPUBLISHER_HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDbFile), cfg.DbPath)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultTimezone, cfg.Location.String())
	assert.False(t, cfg.Headless)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FPUBLISHER_HOME", t.TempDir())
	t.Setenv("FPUBLISHER_WORKERS", "4")
	t.Setenv("FPUBLISHER_HTTP_TIMEOUT", "30s")
	t.Setenv("FPUBLISHER_TZ", "UTC")
	t.Setenv("FPUBLISHER_HEADLESS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.Headless)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FPUBLISHER_HOME", t.TempDir())
	t.Setenv("FPUBLISHER_WORKERS", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestInit_CreatesDirs(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("FPUBLISHER_HOME", home)

	require.NoError(t, Init())
	assert.DirExists(t, Config.MediaPath)
	assert.DirExists(t, Config.LogPath)
	assert.Equal(t, filepath.Join(Config.CookiePath, "sohu.json"), GetCookiePath("sohu"))
}
