// Package config loads application configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// EmbeddingConfig selects the embedding provider and model.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// LLMConfig selects the generation provider and the ordered model list.
// The first model is the primary; the rest are fallbacks tried in order.
type LLMConfig struct {
	Provider string   `yaml:"provider"`
	Models   []string `yaml:"models"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	ChunkSize    int           `yaml:"chunk_size"`
	ChunkOverlap int           `yaml:"chunk_overlap"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Config struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	HTTPAddr    string `yaml:"http_addr"`

	OllamaHost    string `yaml:"ollama_host"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	Embeddings EmbeddingConfig `yaml:"embeddings"`
	LLM        LLMConfig       `yaml:"llm"`
	Ingest     IngestConfig    `yaml:"ingest"`
}

// Load builds the configuration: defaults, then the YAML file at path if
// it exists, then environment variables. An empty PostgresDSN selects the
// in-memory store only.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPAddr: ":8080",
		Embeddings: EmbeddingConfig{
			Provider:  ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Models:   []string{"gpt-4o-mini", "gpt-3.5-turbo"},
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Timeout:      3 * time.Minute,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.Embeddings.Provider = getEnv("EMBEDDINGS_PROVIDER", cfg.Embeddings.Provider)
	cfg.Embeddings.Model = getEnv("EMBEDDINGS_MODEL", cfg.Embeddings.Model)
	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)

	if v := os.Getenv("EMBEDDINGS_DIMENSION"); v != "" {
		dim, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse EMBEDDINGS_DIMENSION: %w", err)
		}
		cfg.Embeddings.Dimension = dim
	}

	if v := os.Getenv("LLM_MODELS"); v != "" {
		models := make([]string, 0)
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		if len(models) > 0 {
			cfg.LLM.Models = models
		}
	}

	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return Config{}, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
