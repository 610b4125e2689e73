// Package hash provides a deterministic local embedder with no
// external dependencies. Vectors are derived from an FNV hash of the
// input text, so equal texts always map to equal vectors.
//
// The vectors carry no semantic meaning. Use this embedder for tests,
// offline development, and exercising sink wiring without a model
// endpoint.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/nevindra/sift"
)

// Embedder implements sift.Embedder with hash-derived vectors.
type Embedder struct {
	dimensions int
}

var _ sift.Embedder = (*Embedder)(nil)

// New creates an Embedder producing vectors of the given size.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &Embedder{dimensions: dimensions}
}

// Embed returns one unit-length vector per text, in order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = e.vector(t)
	}
	return vecs, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Name identifies the embedder for error reporting.
func (e *Embedder) Name() string { return "hash" }

// vector hashes text once per dimension and normalizes to unit length.
func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.dimensions)
	var norm float64
	for d := range v {
		h := fnv.New64a()
		h.Write([]byte(strconv.Itoa(d)))
		h.Write([]byte(text))
		// Map the hash onto [-1, 1).
		v[d] = float32(int64(h.Sum64())) / float32(math.MaxInt64)
		norm += float64(v[d]) * float64(v[d])
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for d := range v {
			v[d] *= scale
		}
	}
	return v
}
