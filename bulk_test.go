package sift

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestBulkIngestAll(t *testing.T) {
	p := testPipeline(t)
	bulk, err := NewBulkIngestor(p, WithWorkers(4))
	if err != nil {
		t.Fatalf("NewBulkIngestor: %v", err)
	}
	defer bulk.Release()

	const n = 20
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			ID:   fmt.Sprintf("d%d", i),
			Body: map[string]any{"title": "a b c d e"},
		}
	}

	sink := &memSink{}
	results, err := bulk.IngestAll(context.Background(), docs, []string{"title"}, sink)
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	for i, r := range results {
		if r.DocumentID != docs[i].ID {
			t.Errorf("result %d out of order: %q", i, r.DocumentID)
		}
		if r.ChunkCount != 4 {
			t.Errorf("doc %d: expected 4 chunks, got %d", i, r.ChunkCount)
		}
	}
	if got := len(sink.all()); got != n*4 {
		t.Errorf("expected %d records, got %d", n*4, got)
	}
}

func TestBulkIngestCollectsPerDocumentErrors(t *testing.T) {
	p := testPipeline(t)
	bulk, err := NewBulkIngestor(p, WithWorkers(2))
	if err != nil {
		t.Fatalf("NewBulkIngestor: %v", err)
	}
	defer bulk.Release()

	docs := []Document{
		{ID: "good", Body: map[string]any{"title": "a b c"}},
		{ID: "bad", Body: map[string]any{"title": "a b c"}},
	}

	// Fail only the second document's writes.
	sink := SinkFunc(func(ctx context.Context, records []ChunkRecord) error {
		if records[0].DocumentID == "bad" {
			return fmt.Errorf("backend rejected %s", records[0].DocumentID)
		}
		return nil
	})

	results, err := bulk.IngestAll(context.Background(), docs, []string{"title"}, sink)
	if err == nil || !strings.Contains(err.Error(), "backend rejected bad") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if results[0].ChunkCount == 0 {
		t.Error("healthy document should still be ingested")
	}
}
