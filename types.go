package sift

// --- Domain types ---

// Document is one unit of ingestion: a caller-supplied id plus an
// arbitrarily nested body (mappings, sequences, scalars) as produced by
// encoding/json unmarshaling into map[string]any. The pipeline only
// reads the body, never mutates it.
type Document struct {
	ID   string         `json:"id"`
	Body map[string]any `json:"body"`
}

// ResolvedField is one concrete match of a FieldPath against a document:
// the path with wildcard segments replaced by the sequence indices that
// were actually traversed, and the text value found there.
type ResolvedField struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Chunk is one bounded slice of a resolved field's text. Index values
// for a field are contiguous from 0 and TotalChunks is the same across
// all chunks of that field.
type Chunk struct {
	ParentPath  string `json:"parent_path"`
	Index       int    `json:"index"`
	Text        string `json:"text"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkRecord is the unit handed to a Sink. ID is a pure function of
// (DocumentID, FieldPath, ChunkIndex), so re-ingesting an unchanged
// document produces identical ids and upserting sinks deduplicate.
// Embedding is nil when no embedder is configured or when the embed
// batch failed under PolicyMarkFailed.
type ChunkRecord struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	FieldPath   string    `json:"field_path"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	TotalChunks int       `json:"total_chunks"`
	Embedding   []float32 `json:"-"`
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	DocumentID string
	// FieldCount is the number of resolved fields that produced chunks.
	FieldCount int
	// ChunkCount is the total number of records written to the sink.
	ChunkCount int
	// EmbedErrors holds per-batch embedding failures when the pipeline
	// runs with PolicyMarkFailed. Empty on a fully successful run.
	EmbedErrors []error
}

// FailedEmbeds reports how many embed batches failed under PolicyMarkFailed.
func (r IngestResult) FailedEmbeds() int { return len(r.EmbedErrors) }
