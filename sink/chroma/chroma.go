// Package chroma implements a sift.Sink backed by a ChromaDB server
// over HTTP. Records are upserted into a single collection with their
// precomputed embeddings, so the server never needs an embedding
// function of its own.
package chroma

import (
	"context"
	"fmt"
	"log/slog"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/collection"
	"github.com/amikos-tech/chroma-go/types"

	"github.com/nevindra/sift"
)

// Option configures a Chroma Sink.
type Option func(*Sink)

// WithLogger sets a structured logger for the sink.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// WithDistanceFunction sets the HNSW distance function used when the
// collection is created. Default: cosine.
func WithDistanceFunction(fn types.DistanceFunction) Option {
	return func(s *Sink) { s.distance = fn }
}

// Sink writes chunk records to a ChromaDB collection.
type Sink struct {
	client         *chromago.Client
	collectionName string
	collection     *chromago.Collection
	distance       types.DistanceFunction
	logger         *slog.Logger
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

// New creates a Sink talking to the Chroma server at baseURL
// (e.g. "http://localhost:8000"). The collection is created on Init
// if it does not exist.
func New(baseURL, collectionName string, opts ...Option) (*Sink, error) {
	client, err := chromago.NewClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("chroma: create client: %w", err)
	}
	s := &Sink{
		client:         client,
		collectionName: collectionName,
		distance:       types.COSINE,
		logger:         nopLogger,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Init creates or fetches the collection. Safe to call multiple times.
func (s *Sink) Init(ctx context.Context) error {
	col, err := s.client.NewCollection(
		ctx,
		collection.WithName(s.collectionName),
		collection.WithHNSWDistanceFunction(s.distance),
		collection.WithCreateIfNotExist(true),
	)
	if err != nil {
		return fmt.Errorf("chroma: create collection %s: %w", s.collectionName, err)
	}
	s.collection = col
	s.logger.Debug("chroma: collection ready", "name", s.collectionName)
	return nil
}

// Write upserts one batch of records into the collection. Records
// without embeddings are skipped: Chroma requires a vector per entry
// and this sink never delegates embedding to the server.
func (s *Sink) Write(ctx context.Context, records []sift.ChunkRecord) error {
	if s.collection == nil {
		return fmt.Errorf("chroma: sink not initialized, call Init first")
	}

	embeddings, metadatas, documents, ids := mapRecords(records)
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.collection.Upsert(ctx, embeddings, metadatas, documents, ids); err != nil {
		return fmt.Errorf("chroma: upsert %d records: %w", len(ids), err)
	}
	s.logger.Debug("chroma: batch upserted", "records", len(ids))
	return nil
}

// Search performs vector similarity search over the collection.
func (s *Sink) Search(ctx context.Context, embedding []float32, topK int) ([]sift.ChunkRecord, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("chroma: sink not initialized, call Init first")
	}

	results, err := s.collection.QueryWithOptions(ctx,
		types.WithQueryEmbeddings([]*types.Embedding{types.NewEmbeddingFromFloat32(embedding)}),
		types.WithNResults(int32(topK)),
		types.WithInclude(types.IDocuments, types.IMetadatas, types.IDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("chroma: query: %w", err)
	}

	var out []sift.ChunkRecord
	if len(results.Ids) == 0 {
		return out, nil
	}
	for i, id := range results.Ids[0] {
		r := sift.ChunkRecord{ID: id}
		if len(results.Documents) > 0 && i < len(results.Documents[0]) {
			r.Text = results.Documents[0][i]
		}
		if len(results.Metadatas) > 0 && i < len(results.Metadatas[0]) {
			applyMetadata(&r, results.Metadatas[0][i])
		}
		out = append(out, r)
	}
	return out, nil
}

// mapRecords converts chunk records to the parallel slices Chroma's
// API expects, dropping records without embeddings.
func mapRecords(records []sift.ChunkRecord) ([]*types.Embedding, []map[string]any, []string, []string) {
	var (
		embeddings []*types.Embedding
		metadatas  []map[string]any
		documents  []string
		ids        []string
	)
	for _, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		embeddings = append(embeddings, types.NewEmbeddingFromFloat32(r.Embedding))
		metadatas = append(metadatas, map[string]any{
			"document_id":  r.DocumentID,
			"field_path":   r.FieldPath,
			"chunk_index":  r.ChunkIndex,
			"total_chunks": r.TotalChunks,
		})
		documents = append(documents, r.Text)
		ids = append(ids, r.ID)
	}
	return embeddings, metadatas, documents, ids
}

// applyMetadata restores chunk fields from a Chroma metadata map.
// Numeric values round-trip as float64 through the JSON transport.
func applyMetadata(r *sift.ChunkRecord, meta map[string]any) {
	if v, ok := meta["document_id"].(string); ok {
		r.DocumentID = v
	}
	if v, ok := meta["field_path"].(string); ok {
		r.FieldPath = v
	}
	r.ChunkIndex = metaInt(meta["chunk_index"])
	r.TotalChunks = metaInt(meta["total_chunks"])
}

func metaInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 0
}
