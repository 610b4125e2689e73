// Package postgres implements a sift.Sink using PostgreSQL with
// pgvector for native vector similarity search.
//
// The Sink accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/sift"
)

// Sink writes chunk records to PostgreSQL. Vector search uses an HNSW
// index with cosine distance.
type Sink struct {
	pool *pgxpool.Pool
	cfg  pgConfig
}

// pgConfig holds sink configuration set via Option functions.
type pgConfig struct {
	embeddingDimension int // 0 = untyped vector
	hnswM              int // 0 = pgvector default (16)
	hnswEFConstruction int // 0 = pgvector default (64)
	hnswEFSearch       int // 0 = pgvector default (40)
}

// Option configures a PostgreSQL Sink.
type Option func(*pgConfig)

// WithEmbeddingDimension sets the vector column dimension (e.g. 1536, 768).
// When set, CREATE TABLE uses vector(N) instead of untyped vector, enabling
// better index optimization and catching dimension mismatches at insert time.
// Only affects new table creation (no ALTER on existing tables).
func WithEmbeddingDimension(dim int) Option {
	return func(c *pgConfig) { c.embeddingDimension = dim }
}

// WithHNSWM sets the HNSW m parameter (max connections per node).
// Higher values improve recall at the cost of memory. Default: pgvector's 16.
// Only affects index creation (CREATE INDEX IF NOT EXISTS).
func WithHNSWM(m int) Option {
	return func(c *pgConfig) { c.hnswM = m }
}

// WithEFConstruction sets the HNSW ef_construction parameter (build-time
// candidate list size). Higher values improve index quality at the cost of
// slower builds. Default: pgvector's 64.
func WithEFConstruction(ef int) Option {
	return func(c *pgConfig) { c.hnswEFConstruction = ef }
}

// WithEFSearch sets the HNSW ef_search parameter (query-time candidate
// list size). Higher values improve recall at the cost of latency.
// Default: pgvector's 40. Applied during Init().
func WithEFSearch(ef int) Option {
	return func(c *pgConfig) { c.hnswEFSearch = ef }
}

var (
	_ sift.Sink        = (*Sink)(nil)
	_ sift.Initializer = (*Sink)(nil)
	_ sift.Searcher    = (*Sink)(nil)
)

// New creates a Sink using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool, opts ...Option) *Sink {
	var cfg pgConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Sink{pool: pool, cfg: cfg}
}

// vectorType returns "vector" or "vector(N)" depending on config.
func (s *Sink) vectorType() string {
	if s.cfg.embeddingDimension > 0 {
		return fmt.Sprintf("vector(%d)", s.cfg.embeddingDimension)
	}
	return "vector"
}

// hnswWithClause returns the WITH (...) clause for HNSW index creation,
// or an empty string if no tuning params are set.
func (s *Sink) hnswWithClause() string {
	var parts []string
	if s.cfg.hnswM > 0 {
		parts = append(parts, fmt.Sprintf("m = %d", s.cfg.hnswM))
	}
	if s.cfg.hnswEFConstruction > 0 {
		parts = append(parts, fmt.Sprintf("ef_construction = %d", s.cfg.hnswEFConstruction))
	}
	if len(parts) == 0 {
		return ""
	}
	return " WITH (" + strings.Join(parts, ", ") + ")"
}

// Init creates the pgvector extension, the chunk table, and indexes.
// Safe to call multiple times (all statements are idempotent).
func (s *Sink) Init(ctx context.Context) error {
	vtype := s.vectorType()
	hnswWith := s.hnswWithClause()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			field_path TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			total_chunks INTEGER NOT NULL,
			embedding %s,
			updated_at BIGINT NOT NULL
		)`, vtype),
		`CREATE INDEX IF NOT EXISTS document_chunks_document_idx ON document_chunks(document_id)`,
		`CREATE INDEX IF NOT EXISTS document_chunks_field_idx ON document_chunks(document_id, field_path)`,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx ON document_chunks USING hnsw (embedding vector_cosine_ops)%s`, hnswWith),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}

	if s.cfg.hnswEFSearch > 0 {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf("SET hnsw.ef_search = %d", s.cfg.hnswEFSearch)); err != nil {
			return fmt.Errorf("postgres: set ef_search: %w", err)
		}
	}

	return nil
}

// Write upserts one batch of records in a single transaction.
func (s *Sink) Write(ctx context.Context, records []sift.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := sift.NowUnix()
	for _, r := range records {
		if len(r.Embedding) > 0 {
			embStr := serializeEmbedding(r.Embedding)
			_, err = tx.Exec(ctx,
				`INSERT INTO document_chunks (id, document_id, field_path, chunk_index, chunk_text, total_chunks, embedding, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8)
				 ON CONFLICT (id) DO UPDATE SET
				   document_id = EXCLUDED.document_id,
				   field_path = EXCLUDED.field_path,
				   chunk_index = EXCLUDED.chunk_index,
				   chunk_text = EXCLUDED.chunk_text,
				   total_chunks = EXCLUDED.total_chunks,
				   embedding = EXCLUDED.embedding,
				   updated_at = EXCLUDED.updated_at`,
				r.ID, r.DocumentID, r.FieldPath, r.ChunkIndex, r.Text, r.TotalChunks, embStr, now)
		} else {
			_, err = tx.Exec(ctx,
				`INSERT INTO document_chunks (id, document_id, field_path, chunk_index, chunk_text, total_chunks, embedding, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)
				 ON CONFLICT (id) DO UPDATE SET
				   document_id = EXCLUDED.document_id,
				   field_path = EXCLUDED.field_path,
				   chunk_index = EXCLUDED.chunk_index,
				   chunk_text = EXCLUDED.chunk_text,
				   total_chunks = EXCLUDED.total_chunks,
				   embedding = NULL,
				   updated_at = EXCLUDED.updated_at`,
				r.ID, r.DocumentID, r.FieldPath, r.ChunkIndex, r.Text, r.TotalChunks, now)
		}
		if err != nil {
			return fmt.Errorf("postgres: write chunk %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}

// Search performs vector similarity search over stored chunks using
// pgvector's cosine distance operator with the HNSW index.
func (s *Sink) Search(ctx context.Context, embedding []float32, topK int) ([]sift.ChunkRecord, error) {
	embStr := serializeEmbedding(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, field_path, chunk_index, chunk_text, total_chunks
		 FROM document_chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`,
		embStr, topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: search chunks: %w", err)
	}
	defer rows.Close()

	var results []sift.ChunkRecord
	for rows.Next() {
		var r sift.ChunkRecord
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.FieldPath, &r.ChunkIndex, &r.Text, &r.TotalChunks); err != nil {
			return nil, fmt.Errorf("postgres: scan chunk: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteDocument removes every chunk belonging to a document.
func (s *Sink) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("postgres: delete document %s: %w", documentID, err)
	}
	return nil
}

// Close is a no-op. The caller owns the pool and manages its lifecycle.
func (s *Sink) Close() error {
	return nil
}

// serializeEmbedding converts []float32 to a string like "[0.1,0.2,0.3]"
// suitable for pgvector's text input format.
func serializeEmbedding(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
