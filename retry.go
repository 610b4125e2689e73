package sift

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// The pipeline never retries internally: extraction, chunking, and
// identification are pure, and a sink or embedder failure is surfaced
// verbatim. These decorators are the caller-side retry policy for the
// two boundaries that actually perform I/O.

// RetryOption configures a retry decorator.
type RetryOption func(*retryConfig)

type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxAttempts: 3, baseDelay: time.Second, logger: nopLogger}
}

// RetryMaxAttempts sets the maximum number of attempts (default: 3).
func RetryMaxAttempts(n int) RetryOption {
	return func(c *retryConfig) { c.maxAttempts = n }
}

// RetryBaseDelay sets the initial backoff delay before the second
// attempt (default: 1s). Each subsequent delay doubles.
func RetryBaseDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) { c.baseDelay = d }
}

// RetryLogger sets the structured logger for retry events. Retries log
// at WARN, final failures at ERROR. Default: no output.
func RetryLogger(l *slog.Logger) RetryOption {
	return func(c *retryConfig) { c.logger = l }
}

// WithSinkRetry wraps sink with automatic retry on transient failures:
// *ErrHTTP with status 429 or 503, or any error implementing
// TransientError with Transient() == true. Retries use exponential
// backoff with jitter; a Retry-After duration acts as a delay floor.
func WithSinkRetry(sink Sink, opts ...RetryOption) Sink {
	cfg := defaultRetryConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &retrySink{inner: sink, cfg: cfg}
}

type retrySink struct {
	inner Sink
	cfg   retryConfig
}

func (r *retrySink) Write(ctx context.Context, records []ChunkRecord) error {
	_, err := retryCall(ctx, r.cfg, "sink", func() (struct{}, error) {
		return struct{}{}, r.inner.Write(ctx, records)
	})
	return err
}

// WithEmbedderRetry wraps e with the same transient-failure retry as
// WithSinkRetry.
func WithEmbedderRetry(e Embedder, opts ...RetryOption) Embedder {
	cfg := defaultRetryConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &retryEmbedder{inner: e, cfg: cfg}
}

type retryEmbedder struct {
	inner Embedder
	cfg   retryConfig
}

func (r *retryEmbedder) Name() string    { return r.inner.Name() }
func (r *retryEmbedder) Dimensions() int { return r.inner.Dimensions() }

func (r *retryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return retryCall(ctx, r.cfg, r.inner.Name(), func() ([][]float32, error) {
		return r.inner.Embed(ctx, texts)
	})
}

// retryCall calls fn up to cfg.maxAttempts times, sleeping between
// transient failures.
func retryCall[T any](ctx context.Context, cfg retryConfig, name string, fn func() (T, error)) (T, error) {
	var zero T
	var last error
	for i := 0; i < cfg.maxAttempts; i++ {
		result, err := fn()
		if err == nil || !isTransient(err) {
			return result, err
		}
		last = err
		cfg.logger.Warn("retrying transient error",
			"target", name,
			"attempt", i+1,
			"max_attempts", cfg.maxAttempts,
			"error", err)
		if i < cfg.maxAttempts-1 {
			timer := time.NewTimer(retryDelay(cfg.baseDelay, i, err))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	cfg.logger.Error("all retry attempts exhausted",
		"target", name,
		"attempts", cfg.maxAttempts,
		"error", last)
	return zero, last
}

// isTransient reports whether err may be retried: HTTP 429/503 or an
// explicit TransientError.
func isTransient(err error) bool {
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.Status == 429 || httpErr.Status == 503
	}
	var te TransientError
	return errors.As(err, &te) && te.Transient()
}

// retryDelay computes the delay before retry attempt i: exponential
// backoff with up to 50% jitter, floored by the server's Retry-After
// when present.
func retryDelay(base time.Duration, i int, err error) time.Duration {
	exp := base * (1 << i)
	backoff := exp + time.Duration(rand.Int63n(int64(exp)/2+1))
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) && httpErr.RetryAfter > backoff {
		return httpErr.RetryAfter
	}
	return backoff
}

var (
	_ Sink     = (*retrySink)(nil)
	_ Embedder = (*retryEmbedder)(nil)
)
