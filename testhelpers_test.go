package sift

import (
	"context"
	"hash/fnv"
	"sync"
)

// memSink collects written records in memory. Safe for concurrent use
// so bulk tests can share one instance.
type memSink struct {
	mu      sync.Mutex
	writes  int
	records []ChunkRecord
	err     error // returned by every Write when set
}

func (s *memSink) Write(ctx context.Context, records []ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.records = append(s.records, records...)
	return nil
}

func (s *memSink) all() []ChunkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChunkRecord, len(s.records))
	copy(out, s.records)
	return out
}

// stubEmbedder derives a deterministic vector from each text's hash.
type stubEmbedder struct {
	dims  int
	calls int
	err   error // returned by every Embed when set
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text, e.dims)
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dims }
func (e *stubEmbedder) Name() string    { return "stub" }

func hashVector(text string, dims int) []float32 {
	if dims <= 0 {
		dims = 4
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int32(seed>>33)) / float32(1<<31)
	}
	return vec
}
