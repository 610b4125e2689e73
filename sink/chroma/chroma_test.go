package chroma

import (
	"testing"

	"github.com/nevindra/sift"
)

func TestMapRecordsSkipsMissingEmbeddings(t *testing.T) {
	records := []sift.ChunkRecord{
		{ID: "d1.title.0", DocumentID: "d1", FieldPath: "title", ChunkIndex: 0, Text: "alpha", TotalChunks: 2, Embedding: []float32{1, 0}},
		{ID: "d1.title.1", DocumentID: "d1", FieldPath: "title", ChunkIndex: 1, Text: "beta", TotalChunks: 2},
	}

	embeddings, metadatas, documents, ids := mapRecords(records)
	if len(ids) != 1 || ids[0] != "d1.title.0" {
		t.Fatalf("ids: %v", ids)
	}
	if len(embeddings) != 1 || len(documents) != 1 || len(metadatas) != 1 {
		t.Fatalf("parallel slices out of sync: %d %d %d", len(embeddings), len(documents), len(metadatas))
	}
	if documents[0] != "alpha" {
		t.Errorf("document: %q", documents[0])
	}
	if metadatas[0]["field_path"] != "title" || metadatas[0]["total_chunks"] != 2 {
		t.Errorf("metadata: %v", metadatas[0])
	}
}

func TestApplyMetadataRoundTrip(t *testing.T) {
	// Chroma returns numbers as float64 over its JSON transport.
	var r sift.ChunkRecord
	applyMetadata(&r, map[string]any{
		"document_id":  "d1",
		"field_path":   "sections.0.body",
		"chunk_index":  float64(3),
		"total_chunks": float64(7),
	})
	if r.DocumentID != "d1" || r.FieldPath != "sections.0.body" {
		t.Errorf("strings: %+v", r)
	}
	if r.ChunkIndex != 3 || r.TotalChunks != 7 {
		t.Errorf("ints: %+v", r)
	}
}

func TestApplyMetadataMissingKeys(t *testing.T) {
	var r sift.ChunkRecord
	applyMetadata(&r, map[string]any{})
	if r.DocumentID != "" || r.ChunkIndex != 0 {
		t.Errorf("expected zero values, got %+v", r)
	}
}
