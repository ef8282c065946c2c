// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/application/advice"
	"github.com/alchemorsel/nutrition/internal/application/nutrition"
	adviceDomain "github.com/alchemorsel/nutrition/internal/domain/advice"
	nutritionDomain "github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/server"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/infrastructure/persistence/memory"
	redisRepo "github.com/alchemorsel/nutrition/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

// ConfigPath is the configuration file location; empty searches the defaults
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	AIModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.NewAtomic(logger.Config{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Development: cfg.Logging.Development,
		})
	},
)

// MonitoringModule provides metrics, tracing and the health aggregator
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.MetricsRecorder { return m },
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.TracingEndpoint,
			Insecure:       cfg.Monitoring.TracingInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log)
	},
)

// AIModule provides the completion client stack
var AIModule = fx.Provide(
	NewGuardedClient,
	NewCompletionClient,
)

// NewGuardedClient builds the provider client behind a rate limiter and breaker
func NewGuardedClient(cfg *config.Config, metrics *monitoring.MetricsCollector, health *healthcheck.HealthCheck, log *zap.Logger) (*ai.GuardedClient, error) {
	provider, err := ai.NewProviderClient(cfg.AI, log)
	if err != nil {
		return nil, err
	}

	guarded := ai.NewGuardedClient(provider, ai.GuardConfig{
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Burst:             cfg.AI.Burst,
		Breaker: healthcheck.CircuitBreakerConfig{
			FailureThreshold: cfg.AI.FailureThreshold,
			SuccessThreshold: cfg.AI.SuccessThreshold,
			Timeout:          cfg.AI.BreakerTimeout,
			OnStateChange: func(name string, _, to healthcheck.CircuitBreakerState) {
				metrics.SetBreakerState(name, int(to))
			},
		},
	}, metrics, log)

	health.Register("ai", ai.NewHealthChecker(log, ai.Provider{
		Client:  guarded,
		Breaker: guarded.Breaker(),
	}))

	return guarded, nil
}

// NewCompletionClient adds the verdict cache when it is enabled
func NewCompletionClient(
	lc fx.Lifecycle,
	cfg *config.Config,
	guarded *ai.GuardedClient,
	metrics outbound.MetricsRecorder,
	health *healthcheck.HealthCheck,
	log *zap.Logger,
) (outbound.CompletionClient, error) {
	vc := cfg.Verification
	if !vc.CacheEnabled {
		return guarded, nil
	}

	var cache outbound.CacheRepository
	switch vc.CacheBackend {
	case "memory":
		cache = memory.NewCacheRepository(vc.CacheSize, vc.CacheTTL)
	case "redis":
		client := redisRepo.NewClient(redisRepo.Config{
			Addrs:        cfg.Redis.Addrs(),
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		health.Register("redis", healthcheck.NewRedisChecker(client))
		cache = redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log)
	default:
		return nil, fmt.Errorf("unsupported verdict cache backend %q", vc.CacheBackend)
	}

	log.Info("Verdict cache enabled",
		zap.String("backend", vc.CacheBackend),
		zap.Duration("ttl", vc.CacheTTL),
	)
	return ai.NewCachedClient(guarded, cache, vc.CacheTTL, metrics, log, ai.WithCacheable(advice.IsVerdict)), nil
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func() *nutritionDomain.MealScorer {
		return nutritionDomain.NewMealScorer()
	},
	func(client outbound.CompletionClient, cfg *config.Config, log *zap.Logger) *advice.Generator {
		return advice.NewGenerator(client, advice.GeneratorConfig{
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		}, log)
	},
	func(client outbound.CompletionClient, cfg *config.Config, log *zap.Logger) *advice.Verifier {
		vc := cfg.Verification
		return advice.NewVerifier(client, advice.VerifierConfig{
			CheckTemperature:      vc.CheckTemperature,
			CheckMaxTokens:        vc.CheckMaxTokens,
			CorrectionTemperature: vc.CorrectionTemperature,
			CorrectionMaxTokens:   vc.CorrectionMaxTokens,
			MaxConcurrency:        vc.MaxConcurrency,
		}, log, advice.WithFallbackPicker(adviceDomain.NewFallbackPicker(vc.FallbackSelection, vc.FallbackSeed)))
	},
	fx.Annotate(
		nutrition.NewService,
		fx.As(new(inbound.NutritionService)),
	),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(svc inbound.NutritionService, cfg *config.Config, log *zap.Logger) *handlers.NutritionHandlers {
		return handlers.NewNutritionHandlers(svc, cfg.Server.MaxBodyBytes, log)
	},
	handlers.NewOpenAPIHandler,
	func(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *middleware.Middleware {
		quiet := []string{cfg.Monitoring.HealthCheckPath, cfg.Monitoring.MetricsPath}
		return middleware.New(cfg.RateLimit, quiet, metrics, log)
	},
	func(
		cfg *config.Config,
		log *zap.Logger,
		h *handlers.NutritionHandlers,
		docs *handlers.OpenAPIHandler,
		mw *middleware.Middleware,
		health *healthcheck.HealthCheck,
		metrics *monitoring.MetricsCollector,
	) *server.Server {
		var metricsHandler = metrics.Handler()
		if !cfg.Monitoring.EnableMetrics {
			metricsHandler = nil
		}
		return server.NewServer(cfg, log, h, docs, mw, health, metricsHandler)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
	WatchConfig,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	_ *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutrition service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("ai_provider", cfg.AI.Provider),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutrition service")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

// WatchConfig applies log level changes from the config file without a restart
func WatchConfig(path ConfigPath, level zap.AtomicLevel, log *zap.Logger) {
	err := config.Watch(string(path), log, func(cfg *config.Config) {
		next := logger.ParseLevel(cfg.Logging.Level)
		if next != level.Level() {
			log.Info("Log level changed",
				zap.String("from", level.Level().String()),
				zap.String("to", next.String()),
			)
			level.SetLevel(next)
		}
	})
	switch {
	case errors.Is(err, config.ErrNoConfigFile):
		log.Debug("No configuration file to watch")
	case err != nil:
		log.Warn("Configuration hot reload disabled", zap.Error(err))
	}
}
