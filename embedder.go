package sift

import "context"

// Embedder abstracts text embedding. Implementations should be
// deterministic enough that identical text yields comparably usable
// vectors; the pipeline places no constraint on dimensionality or
// algorithm.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}
