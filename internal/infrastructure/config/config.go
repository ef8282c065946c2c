// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrNoConfigFile is returned by Watch when there is no file to watch
var ErrNoConfigFile = errors.New("no configuration file in use")

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	AI           AIConfig           `mapstructure:"ai"`
	Verification VerificationConfig `mapstructure:"verification"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production test"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format      string `mapstructure:"format" validate:"oneof=json console"`
	Development bool   `mapstructure:"development"`
}

// AIConfig contains AI provider configuration
type AIConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=ollama openai"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url" validate:"omitempty,url"`
	OpenAIKey         string        `mapstructure:"openai_key"`
	OpenAIModel       string        `mapstructure:"openai_model"`
	OllamaBaseURL     string        `mapstructure:"ollama_base_url" validate:"omitempty,url"`
	OllamaModel       string        `mapstructure:"ollama_model"`
	OllamaNumCtx      int           `mapstructure:"ollama_num_ctx" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature       float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int           `mapstructure:"max_tokens" validate:"gt=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	FailureThreshold  int           `mapstructure:"failure_threshold" validate:"gte=0"`
	SuccessThreshold  int           `mapstructure:"success_threshold" validate:"gte=0"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// VerificationConfig contains advice verification configuration
type VerificationConfig struct {
	MaxConcurrency        int           `mapstructure:"max_concurrency" validate:"gte=1,lte=3"`
	CheckTemperature      float64       `mapstructure:"check_temperature" validate:"gte=0,lte=2"`
	CheckMaxTokens        int           `mapstructure:"check_max_tokens" validate:"gt=0"`
	CorrectionTemperature float64       `mapstructure:"correction_temperature" validate:"gte=0,lte=2"`
	CorrectionMaxTokens   int           `mapstructure:"correction_max_tokens" validate:"gt=0"`
	CacheEnabled          bool          `mapstructure:"cache_enabled"`
	CacheBackend          string        `mapstructure:"cache_backend" validate:"oneof=memory redis"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
	CacheSize             int           `mapstructure:"cache_size" validate:"gte=0"`
	FallbackSelection     string        `mapstructure:"fallback_selection" validate:"oneof=round_robin random"`
	FallbackSeed          int64         `mapstructure:"fallback_seed"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	PoolSize      int           `mapstructure:"pool_size"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableCluster bool          `mapstructure:"enable_cluster"`
	ClusterNodes  []string      `mapstructure:"cluster_nodes"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// Addrs returns the node list for a universal client
func (r RedisConfig) Addrs() []string {
	if r.EnableCluster && len(r.ClusterNodes) > 0 {
		return r.ClusterNodes
	}
	return []string{fmt.Sprintf("%s:%d", r.Host, r.Port)}
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	TracingInsecure bool    `mapstructure:"tracing_insecure"`
	SamplingRate    float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min" validate:"gte=0"`
	BurstSize      int  `mapstructure:"burst_size" validate:"gte=0"`
}

var validate = validator.New()

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

// Watch re-reads the configuration file whenever it changes and passes the
// result to onChange. Invalid files are logged and skipped.
func Watch(configPath string, logger *zap.Logger, onChange func(*Config)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return ErrNoConfigFile
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	logger = logger.Named("config")
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid configuration change",
				zap.String("file", e.Name),
				zap.Error(err),
			)
			return
		}
		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()

	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutrition")
	}

	v.SetEnvPrefix("NUTRITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "nutrition")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.development", false)

	// AI defaults
	v.SetDefault("ai.provider", "ollama")
	v.SetDefault("ai.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai_key", "")
	v.SetDefault("ai.openai_model", "gpt-4o-mini")
	v.SetDefault("ai.ollama_base_url", "http://localhost:11434")
	v.SetDefault("ai.ollama_model", "llama3.2:3b")
	v.SetDefault("ai.ollama_num_ctx", 2048)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.requests_per_minute", 120)
	v.SetDefault("ai.burst", 6)
	v.SetDefault("ai.failure_threshold", 5)
	v.SetDefault("ai.success_threshold", 2)
	v.SetDefault("ai.breaker_timeout", "30s")

	// Verification defaults
	v.SetDefault("verification.max_concurrency", 3)
	v.SetDefault("verification.check_temperature", 0.1)
	v.SetDefault("verification.check_max_tokens", 60)
	v.SetDefault("verification.correction_temperature", 0.3)
	v.SetDefault("verification.correction_max_tokens", 200)
	v.SetDefault("verification.cache_enabled", false)
	v.SetDefault("verification.cache_backend", "memory")
	v.SetDefault("verification.cache_ttl", "10m")
	v.SetDefault("verification.cache_size", 1024)
	v.SetDefault("verification.fallback_selection", "round_robin")
	v.SetDefault("verification.fallback_seed", 1)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "nutrition:verdict:")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.tracing_endpoint", "localhost:4318")
	v.SetDefault("monitoring.tracing_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 600)
	v.SetDefault("rate_limit.burst_size", 20)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.AI.Provider == "openai" && c.AI.OpenAIKey == "" && c.IsProduction() {
		return fmt.Errorf("ai.openai_key is required in production")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
