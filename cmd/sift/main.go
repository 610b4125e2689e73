// Command sift ingests JSON documents into a vector sink.
//
// Usage:
//
//	sift [-config sift.toml] [-fields title,body] docs.json
//
// The input file holds either a single JSON object or an array of
// objects. Each object becomes one document; an "id" field is used as
// the document id when present, otherwise one is generated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/sift"
	"github.com/nevindra/sift/embed/hash"
	"github.com/nevindra/sift/embed/openai"
	"github.com/nevindra/sift/internal/config"
	"github.com/nevindra/sift/observer"
	"github.com/nevindra/sift/sink/chroma"
	"github.com/nevindra/sift/sink/postgres"
	"github.com/nevindra/sift/sink/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIFT_CONFIG"), "path to sift.toml")
	fieldsFlag := flag.String("fields", "", "comma-separated field paths (overrides config)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sift [-config sift.toml] [-fields title,body] docs.json")
		os.Exit(2)
	}

	if err := run(*configPath, *fieldsFlag, flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, fieldsFlag, docsPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load config
	cfg := config.Load(configPath)
	if fieldsFlag != "" {
		cfg.Fields = splitFlag(fieldsFlag)
	}
	if len(cfg.Fields) == 0 {
		return fmt.Errorf("no field paths configured: set fields in %s or pass -fields", "sift.toml")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 2. Observability (optional)
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			return fmt.Errorf("init observer: %w", err)
		}
		defer shutdown(context.Background()) //nolint:errcheck
	}

	// 3. Create embedder
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	if embedder != nil && inst != nil {
		embedder = observer.WrapEmbedder(embedder, inst)
	}

	// 4. Create sink
	snk, cleanup, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if init, ok := snk.(sift.Initializer); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("init sink: %w", err)
		}
	}
	if inst != nil {
		snk = observer.WrapSink(snk, cfg.Sink.Backend, inst)
	}
	snk = sift.WithSinkRetry(snk, sift.RetryLogger(logger))

	// 5. Build pipeline
	opts := []sift.PipelineOption{sift.WithPipelineLogger(logger)}
	if embedder != nil {
		opts = append(opts, sift.WithEmbedder(sift.WithEmbedderRetry(embedder, sift.RetryLogger(logger))))
		if cfg.Embedding.BatchSize > 0 {
			opts = append(opts, sift.WithEmbedBatchSize(cfg.Embedding.BatchSize))
		}
	}
	pipeline, err := sift.NewPipeline(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.Separator, opts...)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	// 6. Load documents and ingest
	docs, err := loadDocuments(docsPath)
	if err != nil {
		return err
	}

	bulk, err := sift.NewBulkIngestor(pipeline, sift.WithWorkers(cfg.Bulk.Workers), sift.WithBulkLogger(logger))
	if err != nil {
		return fmt.Errorf("build ingestor: %w", err)
	}
	defer bulk.Release()

	results, err := bulk.IngestAll(ctx, docs, cfg.Fields, snk)
	for _, r := range results {
		logger.Info("document ingested",
			"document_id", r.DocumentID,
			"fields", r.FieldCount,
			"chunks", r.ChunkCount,
			"embed_errors", r.FailedEmbeds())
	}
	return err
}

func buildEmbedder(cfg config.Config) (sift.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "":
		return nil, nil
	case "hash":
		return hash.New(cfg.Embedding.Dimensions), nil
	case "openai":
		return openai.New(openai.Config{
			Host:       cfg.Embedding.Host,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			APIKey:     cfg.Embedding.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildSink(ctx context.Context, cfg config.Config) (sift.Sink, func(), error) {
	switch cfg.Sink.Backend {
	case "sqlite":
		s := sqlite.New(cfg.Sink.Path)
		return s, func() { s.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Sink.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		opts := []postgres.Option{}
		if cfg.Embedding.Dimensions > 0 {
			opts = append(opts, postgres.WithEmbeddingDimension(cfg.Embedding.Dimensions))
		}
		return postgres.New(pool, opts...), pool.Close, nil
	case "chroma":
		s, err := chroma.New(cfg.Sink.ChromaURL, cfg.Sink.Collection)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink backend %q", cfg.Sink.Backend)
	}
}

// loadDocuments parses a JSON file holding one object or an array of
// objects. A string "id" field names the document; otherwise an id is
// generated.
func loadDocuments(path string) ([]sift.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	var bodies []map[string]any
	if err := json.Unmarshal(data, &bodies); err != nil {
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse documents: %w", err)
		}
		bodies = append(bodies, single)
	}

	docs := make([]sift.Document, len(bodies))
	for i, body := range bodies {
		id, _ := body["id"].(string)
		if id == "" {
			id = sift.NewDocumentID()
		}
		docs[i] = sift.Document{ID: id, Body: body}
	}
	return docs, nil
}

func splitFlag(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
