package sift

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func testPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()
	p, err := NewPipeline(3, 1, " ", opts...)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestIngestCanonicalScenario(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"id": "d1", "title": "a b c d e"}}

	result, err := p.Ingest(context.Background(), doc, []string{"title"}, sink)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.ChunkCount != 4 || result.FieldCount != 1 {
		t.Errorf("result: %+v", result)
	}

	records := sink.all()
	wantTexts := []string{"a b", "b c", "c d", "d e"}
	wantIDs := []string{"d1.title.0", "d1.title.1", "d1.title.2", "d1.title.3"}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Text != wantTexts[i] || r.ID != wantIDs[i] {
			t.Errorf("record %d: got (%q, %q), want (%q, %q)", i, r.ID, r.Text, wantIDs[i], wantTexts[i])
		}
		if r.ChunkIndex != i || r.TotalChunks != 4 || r.FieldPath != "title" || r.DocumentID != "d1" {
			t.Errorf("record %d metadata: %+v", i, r)
		}
	}
}

func TestIngestMissingFieldIsSilent(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "hello"}}

	result, err := p.Ingest(context.Background(), doc, []string{"missing.field"}, sink)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.ChunkCount != 0 || sink.writes != 0 {
		t.Errorf("expected no records, got %+v writes=%d", result, sink.writes)
	}
}

func TestIngestWhitespaceFieldIsSilent(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "   "}}

	result, err := p.Ingest(context.Background(), doc, []string{"title"}, sink)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.ChunkCount != 0 {
		t.Errorf("expected no records, got %+v", result)
	}
}

func TestIngestMalformedPathFailsEagerly(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "hello world"}}

	_, err := p.Ingest(context.Background(), doc, []string{"title", "bad..path"}, sink)
	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *PathError, got %v", err)
	}
	// Eager validation: nothing reaches the sink, not even the valid path.
	if sink.writes != 0 {
		t.Errorf("expected no writes before validation, got %d", sink.writes)
	}
}

func TestIngestWildcardBatchesPerField(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"tags": []any{"x", "y"}}}

	result, err := p.Ingest(context.Background(), doc, []string{"tags.*"}, sink)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.FieldCount != 2 || sink.writes != 2 {
		t.Errorf("expected one batch per resolved field: %+v writes=%d", result, sink.writes)
	}
	records := sink.all()
	if records[0].ID != "d1.tags.0.0" || records[1].ID != "d1.tags.1.0" {
		t.Errorf("ids: %q, %q", records[0].ID, records[1].ID)
	}
}

func TestIngestDeterministic(t *testing.T) {
	doc := Document{ID: "d1", Body: map[string]any{
		"title": "a b c d e",
		"sections": []any{
			map[string]any{"body": "one two three four five six"},
			map[string]any{"body": "seven eight nine ten"},
		},
	}}
	paths := []string{"title", "sections.*.body"}

	run := func() []ChunkRecord {
		p := testPipeline(t, WithEmbedder(&stubEmbedder{dims: 8}))
		sink := &memSink{}
		if _, err := p.Ingest(context.Background(), doc, paths, sink); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		return sink.all()
	}

	first := run()
	for i := 0; i < 3; i++ {
		if got := run(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced different records", i)
		}
	}
}

func TestIngestEmbeddingAttached(t *testing.T) {
	emb := &stubEmbedder{dims: 8}
	p := testPipeline(t, WithEmbedder(emb), WithEmbedBatchSize(2))
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "a b c d e"}}

	if _, err := p.Ingest(context.Background(), doc, []string{"title"}, sink); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	for i, r := range sink.all() {
		if len(r.Embedding) != 8 {
			t.Fatalf("record %d: missing embedding", i)
		}
		// Correspondence: each record carries the vector of its own text.
		if !reflect.DeepEqual(r.Embedding, hashVector(r.Text, 8)) {
			t.Errorf("record %d: embedding does not match text", i)
		}
	}
	if emb.calls != 2 {
		t.Errorf("expected 2 batches of 2, got %d calls", emb.calls)
	}
}

func TestIngestEmbedFailFast(t *testing.T) {
	emb := &stubEmbedder{dims: 4, err: errors.New("boom")}
	p := testPipeline(t, WithEmbedder(emb))
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "a b c d e"}}

	_, err := p.Ingest(context.Background(), doc, []string{"title"}, sink)
	var embedErr *EmbedError
	if !errors.As(err, &embedErr) {
		t.Fatalf("expected *EmbedError, got %v", err)
	}
	if sink.writes != 0 {
		t.Errorf("fail-fast must not write the failed field, got %d writes", sink.writes)
	}
}

func TestIngestEmbedMarkFailed(t *testing.T) {
	emb := &stubEmbedder{dims: 4, err: errors.New("boom")}
	p := testPipeline(t, WithEmbedder(emb), WithEmbedFailurePolicy(PolicyMarkFailed))
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "a b c d e"}}

	result, err := p.Ingest(context.Background(), doc, []string{"title"}, sink)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.FailedEmbeds() == 0 {
		t.Error("expected embed errors to be collected")
	}
	records := sink.all()
	if len(records) != 4 {
		t.Fatalf("records must not be dropped: got %d", len(records))
	}
	for i, r := range records {
		if r.Embedding != nil {
			t.Errorf("record %d: expected nil embedding", i)
		}
	}
}

func TestIngestSinkErrorSurfaced(t *testing.T) {
	p := testPipeline(t)
	sinkErr := errors.New("connection refused")
	sink := &memSink{err: sinkErr}
	doc := Document{ID: "d1", Body: map[string]any{"title": "a b c d e"}}

	_, err := p.Ingest(context.Background(), doc, []string{"title"}, sink)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestIngestCancelledContext(t *testing.T) {
	p := testPipeline(t)
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "a b c d e"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Ingest(ctx, doc, []string{"title"}, sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sink.writes != 0 {
		t.Error("cancelled ingest must not write")
	}
}

func TestIngestNormalizerRunsBeforeChunking(t *testing.T) {
	upper := NormalizerFunc(func(s string) string { return "x y z q" })
	p := testPipeline(t, WithNormalizer(upper))
	sink := &memSink{}
	doc := Document{ID: "d1", Body: map[string]any{"title": "anything"}}

	if _, err := p.Ingest(context.Background(), doc, []string{"title"}, sink); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	records := sink.all()
	if len(records) != 3 || records[0].Text != "x y" {
		t.Errorf("normalizer not applied before chunking: %+v", records)
	}
}

func TestNewPipelineRejectsBadParams(t *testing.T) {
	if _, err := NewPipeline(0, 1, " "); err == nil {
		t.Error("expected error for chunk size 0")
	}
	if _, err := NewPipeline(3, -1, " "); err == nil {
		t.Error("expected error for negative overlap")
	}
	if _, err := NewPipeline(3, 1, ""); err == nil {
		t.Error("expected error for empty separator")
	}
}
