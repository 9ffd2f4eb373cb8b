package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/config"
)

type toolsConfig struct {
	KeywordsURL string `env:"TEST_TOOLS_KEYWORDS_URL" envDefault:"http://localhost:9000/keywords"`
	Retries     int    `env:"TEST_TOOLS_RETRIES" envDefault:"3"`
	Debug       bool   `env:"TEST_TOOLS_DEBUG" envDefault:"true"`
}

type serverConfig struct {
	Port int `env:"TEST_SERVER_PORT" envDefault:"8080"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

type dotenvConfig struct {
	Plan  string `env:"TEST_DOTENV_PLAN"`
	Limit int    `env:"TEST_DOTENV_LIMIT"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_TOOLS_KEYWORDS_URL", "https://hooks.example.com/kw")
	t.Setenv("TEST_TOOLS_RETRIES", "5")

	var cfg toolsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "https://hooks.example.com/kw", cfg.KeywordsURL)
	assert.Equal(t, 5, cfg.Retries)
	assert.True(t, cfg.Debug, "default applies")

	var srv serverConfig
	require.NoError(t, config.Load(&srv))
	assert.Equal(t, 8080, srv.Port)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_Errors(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_SECRET")

	var cfg requiredConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })

	var nilCfg *requiredConfig
	assert.ErrorIs(t, config.Load(nilCfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	override := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("TEST_DOTENV_PLAN=solo\nTEST_DOTENV_LIMIT=20\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("TEST_DOTENV_PLAN=escala\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TEST_DOTENV_PLAN")
		os.Unsetenv("TEST_DOTENV_LIMIT")
	})

	require.NoError(t, config.LoadEnv(base, override))

	var cfg dotenvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "escala", cfg.Plan)
	assert.Equal(t, 20, cfg.Limit)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(dir, "missing.env")) })
}
