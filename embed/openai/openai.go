// Package openai implements sift.Embedder against OpenAI-compatible
// embedding APIs, including local services like Ollama and LM Studio
// that speak the same protocol.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/nevindra/sift"
)

// Config holds the connection settings for an embedding endpoint.
type Config struct {
	// Host is the base URL, e.g. "https://api.openai.com/v1" or
	// "http://localhost:11434/v1" for Ollama.
	Host string
	// Model is the embedding model name, e.g. "text-embedding-3-small".
	Model string
	// Dimensions is the vector size the model produces.
	Dimensions int
	// APIKey authenticates the request. Local services that skip auth
	// can leave it empty.
	APIKey string
}

// Embedder implements sift.Embedder over an OpenAI-compatible API.
type Embedder struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
	logger     *slog.Logger
}

var _ sift.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithLogger sets a structured logger for the embedder.
func WithLogger(l *slog.Logger) Option {
	return func(e *Embedder) { e.logger = l }
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates an Embedder for the given endpoint.
func New(cfg Config, opts ...Option) (*Embedder, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("openai: host is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("openai: dimensions must be positive, got %d", cfg.Dimensions)
	}

	// "none" keeps local OpenAI-compatible services happy when no key
	// is configured; langchaingo rejects an empty token outright.
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai: create client: %w", err)
	}

	inner, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai: create embedder: %w", err)
	}

	e := &Embedder{
		embedder:   inner,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     nopLogger,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Embed generates one vector per input text, in order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("openai: embedding batch", "model", e.model, "texts", len(texts))

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai: embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("openai: got %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Name identifies the provider and model for error reporting.
func (e *Embedder) Name() string { return "openai/" + e.model }
