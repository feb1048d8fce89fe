package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/cache"
	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// ErrNoProvider is returned when extraction is requested with no LLM configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// RateLimiter throttles calls per key.
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Extractor turns claim text into a case record, caching parsed records by
// provider, model and text.
type Extractor struct {
	provider Provider
	model    string
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  RateLimiter
	logger   *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCache stores parsed records in c for ttl (zero uses the cache default).
func WithCache(c cache.Cache, ttl time.Duration) ExtractorOption {
	return func(e *Extractor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithRateLimiter waits on l, keyed by provider name, before each call.
func WithRateLimiter(l RateLimiter) ExtractorOption {
	return func(e *Extractor) { e.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor wraps provider. A nil provider yields an Extractor whose
// Extract always fails with ErrNoProvider.
func NewExtractor(provider Provider, modelName string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{provider: provider, model: modelName, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Enabled reports whether a provider is configured.
func (e *Extractor) Enabled() bool {
	return e != nil && e.provider != nil
}

// Extract returns the case record described by text.
func (e *Extractor) Extract(ctx context.Context, text string) (*model.CaseRecord, error) {
	if !e.Enabled() {
		return nil, ErrNoProvider
	}

	key := cache.CacheKey(e.provider.Name(), e.model, text)
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			var rec model.CaseRecord
			if err := json.Unmarshal(data, &rec); err == nil {
				e.logger.Debug("extraction cache hit", zap.String("provider", e.provider.Name()))
				return &rec, nil
			}
			_ = e.cache.Delete(key)
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, e.provider.Name()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.provider.Extract(ctx, ExtractRequest{Text: text, Model: e.model})
	if err != nil {
		return nil, err
	}
	e.logger.Info("claim extracted",
		zap.String("provider", e.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("took", time.Since(start)),
	)

	rec, err := ParseCaseJSON(resp.Raw)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			if err := e.cache.Set(key, data, e.cacheTTL); err != nil {
				e.logger.Warn("extraction cache write failed", zap.Error(err))
			}
		}
	}
	return rec, nil
}
