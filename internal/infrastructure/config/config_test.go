package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nutrition", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)

	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 0.7, cfg.AI.Temperature)
	assert.Equal(t, 500, cfg.AI.MaxTokens)

	assert.Equal(t, 3, cfg.Verification.MaxConcurrency)
	assert.Equal(t, 0.1, cfg.Verification.CheckTemperature)
	assert.False(t, cfg.Verification.CacheEnabled)
	assert.Equal(t, "round_robin", cfg.Verification.FallbackSelection)

	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addrs())
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerMin)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: staging
server:
  port: 9090
ai:
  provider: openai
  openai_model: gpt-test
verification:
  max_concurrency: 2
  cache_enabled: true
  cache_backend: redis
redis:
  enable_cluster: true
  cluster_nodes: ["a:7000", "b:7001"]
`)
	t.Setenv("NUTRITION_SERVER_PORT", "9191")
	t.Setenv("NUTRITION_AI_OPENAI_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-test", cfg.AI.OpenAIModel)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIKey)
	assert.Equal(t, 2, cfg.Verification.MaxConcurrency)
	assert.True(t, cfg.Verification.CacheEnabled)
	assert.Equal(t, []string{"a:7000", "b:7001"}, cfg.Redis.Addrs())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"ConcurrencyTooHigh": "verification:\n  max_concurrency: 5\n",
		"UnknownProvider":    "ai:\n  provider: mystery\n",
		"UnknownBackend":     "verification:\n  cache_backend: memcached\n",
		"BadLogLevel":        "logging:\n  level: loud\n",
		"ProductionNoKey":    "app:\n  environment: production\nai:\n  provider: openai\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatch_NoFile(t *testing.T) {
	err := Watch("", zap.NewNop(), func(*Config) {})
	assert.ErrorIs(t, err, ErrNoConfigFile)
}

func TestWatch_Reload(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")

	reloaded := make(chan *Config, 4)
	require.NoError(t, Watch(path, zap.NewNop(), func(cfg *Config) { reloaded <- cfg }))

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration change was not observed")
	}
}
