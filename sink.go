package sift

import "context"

// Sink is the single extension point to a storage backend. The pipeline
// hands it one batch of records per resolved field and is agnostic to
// what it does with them — insert, upsert, vector-index write.
//
// Write errors are surfaced to the caller verbatim; the pipeline never
// retries internally. Wrap a sink with WithSinkRetry for retry policy.
type Sink interface {
	Write(ctx context.Context, records []ChunkRecord) error
}

// Initializer is an optional sink capability for backends that need
// schema or index setup before the first write.
type Initializer interface {
	Init(ctx context.Context) error
}

// Searcher is an optional sink capability: similarity search over
// previously written records by embedding vector.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]ChunkRecord, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, records []ChunkRecord) error

func (f SinkFunc) Write(ctx context.Context, records []ChunkRecord) error {
	return f(ctx, records)
}
