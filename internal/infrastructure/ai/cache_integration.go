package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// CachedClient caches semantic-check verdicts for identical advice text.
// Generation and correction calls always go to the provider.
type CachedClient struct {
	next    outbound.CompletionClient
	cache   outbound.CacheRepository
	ttl     time.Duration
	metrics outbound.MetricsRecorder
	logger  *zap.Logger
	// cacheable decides which replies may be stored
	cacheable func(reply string) bool
}

// CachedClientOption configures a CachedClient
type CachedClientOption func(*CachedClient)

// WithCacheable restricts caching to replies the check accepts. Replies the
// verifier cannot read should never be served again from the cache.
func WithCacheable(check func(reply string) bool) CachedClientOption {
	return func(c *CachedClient) {
		if check != nil {
			c.cacheable = check
		}
	}
}

var (
	_ outbound.CompletionClient = (*CachedClient)(nil)
	_ outbound.HealthCheckable  = (*CachedClient)(nil)
)

// NewCachedClient creates a new verdict caching wrapper
func NewCachedClient(next outbound.CompletionClient, cache outbound.CacheRepository, ttl time.Duration, metrics outbound.MetricsRecorder, logger *zap.Logger, opts ...CachedClientOption) *CachedClient {
	c := &CachedClient{
		next:      next,
		cache:     cache,
		ttl:       ttl,
		metrics:   metrics,
		logger:    logger.Named("verdict-cache"),
		cacheable: func(reply string) bool { return reply != "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped provider's name
func (c *CachedClient) Name() string {
	return c.next.Name()
}

// Complete serves semantic checks from cache when possible
func (c *CachedClient) Complete(ctx context.Context, req outbound.CompletionRequest) (string, error) {
	if req.Purpose != outbound.PurposeSemanticCheck {
		return c.next.Complete(ctx, req)
	}

	key := c.key(req)
	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		c.lookup(true)
		return string(cached), nil
	case !errors.Is(err, outbound.ErrCacheMiss):
		c.logger.Debug("Verdict cache unavailable", zap.Error(err))
	}
	c.lookup(false)

	out, err := c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if out == "" || !c.cacheable(out) {
		c.logger.Debug("Reply not cacheable", zap.Int("length", len(out)))
		return out, nil
	}

	// Cache the verdict asynchronously
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if cacheErr := c.cache.Set(cacheCtx, key, []byte(out), c.ttl); cacheErr != nil {
			c.logger.Warn("Failed to cache verdict", zap.Error(cacheErr))
		}
	}()

	return out, nil
}

// HealthCheck delegates to the wrapped client
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	if hc, ok := c.next.(outbound.HealthCheckable); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// key hashes everything that can change the verdict
func (c *CachedClient) key(req outbound.CompletionRequest) string {
	h := sha256.New()
	for _, part := range []string{
		c.next.Name(),
		req.System,
		req.Prompt,
		strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		strconv.Itoa(req.MaxTokens),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "verdict:" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedClient) lookup(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}
