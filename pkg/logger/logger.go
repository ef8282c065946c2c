// Package logger provides structured logging functionality
// Using Uber Zap for high-performance, structured logging
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string
	Format      string
	Development bool
}

// New creates a new logger instance
func New(cfg Config) (*zap.Logger, error) {
	logger, _, err := NewAtomic(cfg)
	return logger, err
}

// NewAtomic creates a logger whose level can be changed after construction
func NewAtomic(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	var encoderConfig zapcore.EncoderConfig
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), level)

	options := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		options = append(options, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, options...), level, nil
}

// ParseLevel converts a textual level, defaulting to info
func ParseLevel(text string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}
