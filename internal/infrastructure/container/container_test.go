package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/ai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(
		fx.NopLogger,
		fx.Supply(ConfigPath("")),
		Module,
	)
	assert.NoError(t, err)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewGuardedClient_RegistersHealthCheck(t *testing.T) {
	cfg := newTestConfig(t)
	logger := zap.NewNop()
	health := healthcheck.New("test", logger)

	guarded, err := NewGuardedClient(cfg, monitoring.NewMetricsCollector(logger), health, logger)
	require.NoError(t, err)
	require.NotNil(t, guarded)
	assert.Equal(t, healthcheck.StateClosed, guarded.Breaker().GetState())
}

func TestNewGuardedClient_UnknownProvider(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AI.Provider = "carrier-pigeon"
	logger := zap.NewNop()

	_, err := NewGuardedClient(cfg, monitoring.NewMetricsCollector(logger), healthcheck.New("test", logger), logger)
	assert.Error(t, err)
}

func TestNewCompletionClient_CacheSelection(t *testing.T) {
	logger := zap.NewNop()
	metrics := monitoring.NewMetricsCollector(logger)

	build := func(t *testing.T, cfg *config.Config) (outbound.CompletionClient, error) {
		health := healthcheck.New("test", logger)
		guarded, err := NewGuardedClient(cfg, metrics, health, logger)
		require.NoError(t, err)
		return NewCompletionClient(fxtest.NewLifecycle(t), cfg, guarded, metrics, health, logger)
	}

	t.Run("disabled returns the guarded client", func(t *testing.T) {
		cfg := newTestConfig(t)
		client, err := build(t, cfg)
		require.NoError(t, err)
		assert.IsType(t, &ai.GuardedClient{}, client)
	})

	t.Run("memory backend wraps with cache", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Verification.CacheEnabled = true
		cfg.Verification.CacheBackend = "memory"
		client, err := build(t, cfg)
		require.NoError(t, err)
		assert.IsType(t, &ai.CachedClient{}, client)
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Verification.CacheEnabled = true
		cfg.Verification.CacheBackend = "memcached"
		_, err := build(t, cfg)
		assert.Error(t, err)
	})
}
