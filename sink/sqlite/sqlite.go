// Package sqlite implements a sift.Sink backed by pure-Go SQLite with
// in-process brute-force vector search. Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/nevindra/sift"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Option configures a SQLite Sink.
type Option func(*Sink)

// WithLogger sets a structured logger for the sink. When set, the sink
// emits debug logs for every operation including timing and row counts.
// If not set, no logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// Sink writes chunk records to a local SQLite file. Writes upsert on
// the record id, so re-ingesting an unchanged document replaces rows
// instead of duplicating them. Embeddings are stored as JSON text and
// vector search runs in-process with brute-force cosine similarity.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ sift.Sink        = (*Sink)(nil)
	_ sift.Initializer = (*Sink)(nil)
	_ sift.Searcher    = (*Sink)(nil)
)

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Sink using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so
// that all goroutines serialize through one connection, eliminating
// SQLITE_BUSY errors caused by concurrent writers.
func New(dbPath string, opts ...Option) *Sink {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with
		// the blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Sink{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: sink opened", "path", dbPath)
	return s
}

// Init creates the chunk table and its indexes. Safe to call multiple
// times.
func (s *Sink) Init(ctx context.Context) error {
	start := time.Now()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			field_path TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			total_chunks INTEGER NOT NULL,
			embedding TEXT,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_field ON document_chunks(document_id, field_path)`,
	}
	for _, ddl := range stmts {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	s.logger.Info("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// Write upserts one batch of records inside a transaction.
func (s *Sink) Write(ctx context.Context, records []sift.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := sift.NowUnix()
	for _, r := range records {
		var embJSON *string
		if len(r.Embedding) > 0 {
			v := serializeEmbedding(r.Embedding)
			embJSON = &v
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO document_chunks
			 (id, document_id, field_path, chunk_index, chunk_text, total_chunks, embedding, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.DocumentID, r.FieldPath, r.ChunkIndex, r.Text, r.TotalChunks, embJSON, now,
		)
		if err != nil {
			s.logger.Error("sqlite: write failed", "id", r.ID, "error", err)
			return fmt.Errorf("write chunk %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("sqlite: batch written",
		"records", len(records),
		"document_id", records[0].DocumentID,
		"duration", time.Since(start))
	return nil
}

// Search returns the topK records most similar to embedding by cosine
// similarity, computed in-process over all stored vectors.
func (s *Sink) Search(ctx context.Context, embedding []float32, topK int) ([]sift.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, field_path, chunk_index, chunk_text, total_chunks, embedding
		 FROM document_chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		record sift.ChunkRecord
		score  float64
	}
	var candidates []scored
	for rows.Next() {
		var r sift.ChunkRecord
		var embJSON string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.FieldPath, &r.ChunkIndex, &r.Text, &r.TotalChunks, &embJSON); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		vec, err := deserializeEmbedding(embJSON)
		if err != nil {
			continue
		}
		r.Embedding = vec
		candidates = append(candidates, scored{record: r, score: cosineSimilarity(embedding, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	out := make([]sift.ChunkRecord, topK)
	for i := 0; i < topK; i++ {
		out[i] = candidates[i].record
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document, for callers
// re-ingesting with a smaller field set.
func (s *Sink) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Sink) Close() error {
	return s.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// serializeEmbedding converts []float32 to a JSON array string.
func serializeEmbedding(embedding []float32) string {
	data, _ := json.Marshal(embedding)
	return string(data)
}

// deserializeEmbedding parses a JSON array string back to []float32.
func deserializeEmbedding(s string) ([]float32, error) {
	var v []float32
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
