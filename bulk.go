package sift

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// BulkIngestor runs independent documents through one Pipeline
// concurrently on a bounded worker pool. The core touches no shared
// mutable state, so cross-document parallelism is safe; within each
// document, chunk order stays deterministic. The sink must tolerate
// concurrent Write calls.
type BulkIngestor struct {
	pipeline *Pipeline
	pool     *ants.Pool
	logger   *slog.Logger
}

// BulkOption configures a BulkIngestor.
type BulkOption func(*bulkConfig)

type bulkConfig struct {
	workers int
	logger  *slog.Logger
}

// WithWorkers sets the worker pool size. Default is half the CPU count,
// minimum 1.
func WithWorkers(n int) BulkOption {
	return func(c *bulkConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBulkLogger sets a structured logger. If not set, no logs are
// emitted.
func WithBulkLogger(l *slog.Logger) BulkOption {
	return func(c *bulkConfig) { c.logger = l }
}

// NewBulkIngestor creates a BulkIngestor over pipeline.
func NewBulkIngestor(pipeline *Pipeline, opts ...BulkOption) (*BulkIngestor, error) {
	cfg := bulkConfig{workers: runtime.NumCPU() / 2, logger: nopLogger}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	for _, o := range opts {
		o(&cfg)
	}
	pool, err := ants.NewPool(cfg.workers)
	if err != nil {
		return nil, err
	}
	return &BulkIngestor{pipeline: pipeline, pool: pool, logger: cfg.logger}, nil
}

// IngestAll ingests every document with the same field paths and sink.
// Results are returned in document order. Per-document failures do not
// stop the others; all errors come back joined.
func (b *BulkIngestor) IngestAll(ctx context.Context, docs []Document, fieldPaths []string, sink Sink) ([]IngestResult, error) {
	results := make([]IngestResult, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		i, doc := i, doc
		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = b.pipeline.Ingest(ctx, doc, fieldPaths, sink)
			if errs[i] != nil {
				b.logger.Error("bulk ingest failed", "document_id", doc.ID, "error", errs[i])
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Release shuts down the worker pool. The BulkIngestor must not be used
// afterwards.
func (b *BulkIngestor) Release() {
	b.pool.Release()
}
