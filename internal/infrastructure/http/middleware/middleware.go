// Package middleware provides HTTP middleware components
// following the Chain of Responsibility pattern
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// HTTPObserver receives per-request measurements
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Middleware provides all middleware functions
type Middleware struct {
	rateLimit config.RateLimitConfig
	limiter   *rate.Limiter
	quiet     map[string]bool
	metrics   HTTPObserver
	logger    *zap.Logger
}

// New creates a new middleware instance. Requests to quietPaths are not logged.
func New(rl config.RateLimitConfig, quietPaths []string, metrics HTTPObserver, logger *zap.Logger) *Middleware {
	limit := rate.Inf
	if rl.RequestsPerMin > 0 {
		limit = rate.Limit(float64(rl.RequestsPerMin) / 60)
	}
	burst := rl.BurstSize
	if burst <= 0 {
		burst = 1
	}

	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return &Middleware{
		rateLimit: rl,
		limiter:   rate.NewLimiter(limit, burst),
		quiet:     quiet,
		metrics:   metrics,
		logger:    logger.Named("http"),
	}
}

// RequestIDFromContext returns the id assigned by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID adds a unique request ID to the context
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger provides structured logging and metrics for requests
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		latency := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)

		if m.metrics != nil {
			m.metrics.ObserveHTTPRequest(r.Method, route, status, latency)
		}

		if m.quiet[r.URL.Path] {
			return
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("ip", r.RemoteAddr),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.Int("bytes", ww.BytesWritten()),
		}

		switch {
		case status >= 500:
			m.logger.Error("Server error", fields...)
		case status >= 400:
			m.logger.Warn("Client error", fields...)
		default:
			m.logger.Info("Request completed", fields...)
		}
	})
}

// RateLimit rejects requests above the configured global rate
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.rateLimit.Enable || m.limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", "60")
		WriteError(w, r, errors.NewRateLimitError(float64(m.rateLimit.RequestsPerMin)))
	})
}

// Tracing starts a server span per request through otelhttp. The span is
// renamed to the chi route pattern once routing has run.
func (m *Middleware) Tracing(next http.Handler) http.Handler {
	routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		route := routePattern(r)
		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			semconv.HTTPRoute(route),
			attribute.String("request.id", RequestIDFromContext(r.Context())),
		)
	})

	return otelhttp.NewHandler(routed, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Security adds security headers for API responses
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// JSONOnly rejects request bodies that are not JSON
func (m *Middleware) JSONOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
				err := errors.NewAppError(errors.CodeBadRequest, "Unsupported content type", "Content-Type must be application/json")
				WriteError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WriteError renders an AppError as the standard error body
func WriteError(w http.ResponseWriter, r *http.Request, err *errors.AppError) {
	WriteJSON(w, err.StatusCode(), errors.ToErrorResponse(err, RequestIDFromContext(r.Context())))
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
