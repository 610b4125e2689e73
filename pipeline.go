package sift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// EmbedFailurePolicy controls what the pipeline does when an embedding
// batch fails.
type EmbedFailurePolicy int

const (
	// PolicyFailFast aborts the whole ingestion call on the first
	// embedding failure (default).
	PolicyFailFast EmbedFailurePolicy = iota

	// PolicyMarkFailed keeps the records of a failed batch with nil
	// embeddings, collects the error in IngestResult.EmbedErrors, and
	// continues. Records are never silently dropped either way.
	PolicyMarkFailed
)

// Pipeline orchestrates field resolution, chunking, identification,
// optional embedding, and sink writes for one document at a time.
//
// Resolution, chunking, and identification are pure and share no
// mutable state, so independent documents may be ingested concurrently
// through the same Pipeline. Within one document, chunk order is
// deterministic regardless of embedding batching.
type Pipeline struct {
	chunker    Chunker
	embedder   Embedder
	normalizer Normalizer
	batchSize  int
	policy     EmbedFailurePolicy
	logger     *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineChunker replaces the default SeparatorChunker.
func WithPipelineChunker(c Chunker) PipelineOption {
	return func(p *Pipeline) { p.chunker = c }
}

// WithEmbedder sets the embedding provider. Without one, records are
// written with nil embeddings (some sinks embed server-side).
func WithEmbedder(e Embedder) PipelineOption {
	return func(p *Pipeline) { p.embedder = e }
}

// WithNormalizer sets a text normalizer applied to each resolved field
// before chunking.
func WithNormalizer(n Normalizer) PipelineOption {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithEmbedBatchSize sets the number of chunks per Embed call (default 64).
func WithEmbedBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithEmbedFailurePolicy sets the embedding failure policy (default
// PolicyFailFast).
func WithEmbedFailurePolicy(policy EmbedFailurePolicy) PipelineOption {
	return func(p *Pipeline) { p.policy = policy }
}

// WithPipelineLogger sets a structured logger. If not set, no logs are
// emitted.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a Pipeline. Chunking parameters are validated
// eagerly; an invalid chunk size or separator is a permanent caller
// error, not something to discover mid-ingestion.
func NewPipeline(chunkSize, chunkOverlap int, separator string, opts ...PipelineOption) (*Pipeline, error) {
	chunker, err := NewSeparatorChunker(
		WithChunkSize(chunkSize),
		WithChunkOverlap(chunkOverlap),
		WithSeparator(separator),
	)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		chunker:   chunker,
		batchSize: 64,
		logger:    nopLogger,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = nopLogger
	}
	return p, nil
}

// Ingest resolves every field path against doc, chunks each resolved
// value, assigns identifiers, embeds (if configured), and writes one
// batch of records per resolved field to sink.
//
// All paths are parsed before any document work, so a malformed path
// fails the call without side effects. Paths that resolve to nothing
// and whitespace-only values contribute no records and no error.
// Context cancellation is honored at embed and sink boundaries only —
// the rest is pure computation.
func (p *Pipeline) Ingest(ctx context.Context, doc Document, fieldPaths []string, sink Sink) (IngestResult, error) {
	if sink == nil {
		return IngestResult{}, fmt.Errorf("sift: ingest %q: nil sink", doc.ID)
	}

	paths := make([]FieldPath, len(fieldPaths))
	for i, raw := range fieldPaths {
		fp, err := ParseFieldPath(raw)
		if err != nil {
			return IngestResult{}, err
		}
		paths[i] = fp
	}

	result := IngestResult{DocumentID: doc.ID}
	for _, fp := range paths {
		fields := Resolve(doc.Body, fp)
		p.logger.Debug("field resolved",
			"document_id", doc.ID, "path", fp.String(), "matches", len(fields))

		for _, field := range fields {
			records, embedErrs, err := p.chunkField(ctx, doc.ID, field)
			if err != nil {
				return result, err
			}
			result.EmbedErrors = append(result.EmbedErrors, embedErrs...)
			if len(records) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := sink.Write(ctx, records); err != nil {
				return result, fmt.Errorf("sink write %q: %w", field.Path, err)
			}
			result.FieldCount++
			result.ChunkCount += len(records)
		}
	}

	p.logger.Info("document ingested",
		"document_id", doc.ID,
		"fields", result.FieldCount,
		"chunks", result.ChunkCount,
		"failed_embeds", result.FailedEmbeds())
	return result, nil
}

// chunkField turns one resolved field into its record batch: chunk,
// identify, embed.
func (p *Pipeline) chunkField(ctx context.Context, docID string, field ResolvedField) ([]ChunkRecord, []error, error) {
	text := field.Text
	if p.normalizer != nil {
		text = p.normalizer.Normalize(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	texts := p.chunker.Chunk(text)
	if len(texts) == 0 {
		return nil, nil, nil
	}

	records := make([]ChunkRecord, len(texts))
	for i, t := range texts {
		records[i] = ChunkRecord{
			ID:          ChunkID(docID, field.Path, i),
			DocumentID:  docID,
			FieldPath:   field.Path,
			ChunkIndex:  i,
			Text:        t,
			TotalChunks: len(texts),
		}
	}

	embedErrs, err := p.embedRecords(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	return records, embedErrs, nil
}

// embedRecords embeds records in batches of p.batchSize, attaching
// vectors by position. Under PolicyMarkFailed a failed batch leaves its
// records without embeddings and the error is returned for collection.
func (p *Pipeline) embedRecords(ctx context.Context, records []ChunkRecord) ([]error, error) {
	if p.embedder == nil || len(records) == 0 {
		return nil, nil
	}

	var failed []error
	for i := 0; i < len(records); i += p.batchSize {
		end := i + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		batch := records[i:end]
		texts := make([]string, len(batch))
		for j, r := range batch {
			texts[j] = r.Text
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			embedErr := &EmbedError{Provider: p.embedder.Name(), First: i, Last: end - 1, Err: err}
			if p.policy == PolicyFailFast {
				return failed, embedErr
			}
			p.logger.Warn("embed batch failed, records kept without embeddings",
				"provider", p.embedder.Name(), "first", i, "last", end-1, "error", err)
			failed = append(failed, embedErr)
			continue
		}
		for j := range batch {
			if j < len(embeddings) {
				records[i+j].Embedding = embeddings[j]
			}
		}
	}
	return failed, nil
}
