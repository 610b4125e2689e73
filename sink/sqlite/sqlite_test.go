package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nevindra/sift"
)

func testSink(t *testing.T) *Sink {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "sift.db"))
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func record(id, docID, path string, idx int, text string, emb []float32) sift.ChunkRecord {
	return sift.ChunkRecord{
		ID:          id,
		DocumentID:  docID,
		FieldPath:   path,
		ChunkIndex:  idx,
		Text:        text,
		TotalChunks: 1,
		Embedding:   emb,
	}
}

func TestWriteAndSearch(t *testing.T) {
	s := testSink(t)
	ctx := context.Background()

	err := s.Write(ctx, []sift.ChunkRecord{
		record("d1.title.0", "d1", "title", 0, "alpha", []float32{1, 0, 0}),
		record("d1.body.0", "d1", "body", 0, "beta", []float32{0, 1, 0}),
		record("d2.title.0", "d2", "title", 0, "gamma", []float32{0.9, 0.1, 0}),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "d1.title.0" || got[1].ID != "d2.title.0" {
		t.Errorf("ranking: %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Text != "alpha" || got[0].TotalChunks != 1 {
		t.Errorf("record fields lost: %+v", got[0])
	}
}

func TestWriteUpsertsOnID(t *testing.T) {
	s := testSink(t)
	ctx := context.Background()

	if err := s.Write(ctx, []sift.ChunkRecord{
		record("d1.title.0", "d1", "title", 0, "old text", []float32{1, 0}),
	}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.Write(ctx, []sift.ChunkRecord{
		record("d1.title.0", "d1", "title", 0, "new text", []float32{1, 0}),
	}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(got))
	}
	if got[0].Text != "new text" {
		t.Errorf("expected replacement, got %q", got[0].Text)
	}
}

func TestSearchSkipsRecordsWithoutEmbedding(t *testing.T) {
	s := testSink(t)
	ctx := context.Background()

	if err := s.Write(ctx, []sift.ChunkRecord{
		record("d1.title.0", "d1", "title", 0, "embedded", []float32{1, 0}),
		record("d1.title.1", "d1", "title", 1, "bare", nil),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d1.title.0" {
		t.Errorf("expected only the embedded record, got %+v", got)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := testSink(t)
	ctx := context.Background()

	if err := s.Write(ctx, []sift.ChunkRecord{
		record("d1.title.0", "d1", "title", 0, "keep me not", []float32{1, 0}),
		record("d2.title.0", "d2", "title", 0, "survivor", []float32{0, 1}),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.DeleteDocument(ctx, "d1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "d2" {
		t.Errorf("expected only d2 to survive, got %+v", got)
	}
}

func TestWriteEmptyBatch(t *testing.T) {
	s := testSink(t)
	if err := s.Write(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestInitIdempotent(t *testing.T) {
	s := testSink(t)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
