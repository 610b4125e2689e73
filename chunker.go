package sift

import (
	"errors"
	"strings"
)

// Chunker parameter errors, surfaced eagerly before any text is processed.
var (
	ErrChunkSize = errors.New("sift: chunk size must be >= 1")
	ErrOverlap   = errors.New("sift: chunk overlap must be >= 0")
	ErrSeparator = errors.New("sift: separator must be non-empty")
)

// Chunker splits one text value into an ordered sequence of chunks.
// Implementations must be deterministic: chunk order assigns indices
// and identifiers downstream.
type Chunker interface {
	Chunk(text string) []string
}

// --- ChunkerOption for configuring chunkers ---

// ChunkerOption configures a chunker implementation.
type ChunkerOption func(*chunkerConfig)

type chunkerConfig struct {
	chunkSize    int
	chunkOverlap int
	separator    string
}

func defaultChunkerConfig() chunkerConfig {
	return chunkerConfig{chunkSize: 512, chunkOverlap: 50, separator: " "}
}

// WithChunkSize sets the maximum chunk length in characters (default 512).
func WithChunkSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.chunkSize = n }
}

// WithChunkOverlap sets the maximum overlap between consecutive chunks
// in characters (default 50). Values >= the chunk size are clamped so
// every step still consumes at least one new token.
func WithChunkOverlap(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.chunkOverlap = n }
}

// WithSeparator sets the literal token separator (default " ").
// It is not a pattern.
func WithSeparator(s string) ChunkerOption {
	return func(c *chunkerConfig) { c.separator = s }
}

// SeparatorChunker splits text on a literal separator and greedily packs
// tokens into chunks of at most chunkSize characters, seeding each chunk
// after the first with the trailing tokens of its predecessor that fit
// within chunkOverlap characters.
type SeparatorChunker struct {
	cfg chunkerConfig
}

// NewSeparatorChunker creates a SeparatorChunker. It returns an error
// for a non-positive chunk size, a negative overlap, or an empty
// separator — all caller bugs, rejected before any text is processed.
func NewSeparatorChunker(opts ...ChunkerOption) (*SeparatorChunker, error) {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.chunkSize < 1 {
		return nil, ErrChunkSize
	}
	if cfg.chunkOverlap < 0 {
		return nil, ErrOverlap
	}
	if cfg.separator == "" {
		return nil, ErrSeparator
	}
	// Keep overlap strictly below the chunk size so every chunk always
	// has room for at least one new token.
	if cfg.chunkOverlap >= cfg.chunkSize {
		cfg.chunkOverlap = cfg.chunkSize - 1
	}
	return &SeparatorChunker{cfg: cfg}, nil
}

// Chunk splits text into overlapping chunks. Empty input produces no
// chunks; any non-empty input produces at least one. A single token
// longer than the chunk size still becomes its own chunk — packing
// never drops content. The algorithm is one pass over the tokens, so it
// terminates for every parameter combination.
func (sc *SeparatorChunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	sep := sc.cfg.separator
	tokens := strings.Split(text, sep)

	var chunks []string
	var current []string
	curLen := 0

	for _, tok := range tokens {
		needed := len(tok)
		if len(current) > 0 {
			needed += curLen + len(sep)
		}
		if needed > sc.cfg.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, sep))
			current, curLen = sc.overlapSuffix(current)
			if len(current) > 0 {
				curLen += len(sep)
			}
			curLen += len(tok)
			current = append(current, tok)
			continue
		}
		current = append(current, tok)
		curLen = needed
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

// overlapSuffix returns the trailing tokens of the just-closed chunk
// whose combined length (one separator per boundary) fits within the
// configured overlap, together with that combined length.
func (sc *SeparatorChunker) overlapSuffix(tokens []string) ([]string, int) {
	if sc.cfg.chunkOverlap == 0 {
		return nil, 0
	}
	sepLen := len(sc.cfg.separator)
	total := 0
	start := len(tokens)
	for i := len(tokens) - 1; i >= 0; i-- {
		cost := len(tokens[i])
		if total > 0 {
			cost += sepLen
		}
		if total+cost > sc.cfg.chunkOverlap {
			break
		}
		total += cost
		start = i
	}
	if start == len(tokens) {
		return nil, 0
	}
	overlap := make([]string, len(tokens)-start)
	copy(overlap, tokens[start:])
	return overlap, total
}

var _ Chunker = (*SeparatorChunker)(nil)
