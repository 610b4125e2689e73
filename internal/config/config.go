package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Chunking  ChunkingConfig  `toml:"chunking"`
	Fields    []string        `toml:"fields"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Sink      SinkConfig      `toml:"sink"`
	Bulk      BulkConfig      `toml:"bulk"`
	Observer  ObserverConfig  `toml:"observer"`
}

type ChunkingConfig struct {
	Size      int    `toml:"size"`
	Overlap   int    `toml:"overlap"`
	Separator string `toml:"separator"`
}

type EmbeddingConfig struct {
	// Provider selects the embedder: "openai", "hash", or "" to skip
	// embedding entirely.
	Provider   string `toml:"provider"`
	Host       string `toml:"host"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	APIKey     string `toml:"api_key"`
	BatchSize  int    `toml:"batch_size"`
}

type SinkConfig struct {
	// Backend selects the sink: "sqlite", "postgres", or "chroma".
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
	ChromaURL   string `toml:"chroma_url"`
	Collection  string `toml:"collection"`
}

type BulkConfig struct {
	Workers int `toml:"workers"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Chunking:  ChunkingConfig{Size: 512, Overlap: 50, Separator: " "},
		Embedding: EmbeddingConfig{Provider: "openai", Host: "https://api.openai.com/v1", Model: "text-embedding-3-small", Dimensions: 1536, BatchSize: 64},
		Sink:      SinkConfig{Backend: "sqlite", Path: "sift.db", ChromaURL: "http://localhost:8000", Collection: "sift_chunks"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "sift.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("SIFT_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("SIFT_EMBEDDING_HOST"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := os.Getenv("SIFT_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("SIFT_POSTGRES_URL"); v != "" {
		cfg.Sink.PostgresURL = v
	}
	if v := os.Getenv("SIFT_CHROMA_URL"); v != "" {
		cfg.Sink.ChromaURL = v
	}
	if v := os.Getenv("SIFT_FIELDS"); v != "" {
		cfg.Fields = splitFields(v)
	}
	if v := os.Getenv("SIFT_BULK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bulk.Workers = n
		}
	}
	if os.Getenv("SIFT_OBSERVER_ENABLED") == "true" || os.Getenv("SIFT_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}

// splitFields parses a comma-separated field path list.
func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
