package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Equal(t, ProviderOpenAI, cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, 1536, cfg.Embeddings.Dimension)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-3.5-turbo"}, cfg.LLM.Models)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 3*time.Minute, cfg.Ingest.Timeout)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
embeddings:
  provider: ollama
  model: nomic-embed-text
  dimension: 768
llm:
  provider: ollama
  models:
    - llama3
ingest:
  chunk_size: 500
  chunk_overlap: 100
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, ProviderOllama, cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 768, cfg.Embeddings.Dimension)
	assert.Equal(t, []string{"llama3"}, cfg.LLM.Models)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`http_addr: ":9090"`), 0o600))

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("EMBEDDINGS_DIMENSION", "768")
	t.Setenv("LLM_MODELS", "gpt-4o, gpt-4o-mini ,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, 768, cfg.Embeddings.Dimension)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, cfg.LLM.Models)
}

func TestLoadRejectsBadDimension(t *testing.T) {
	t.Setenv("EMBEDDINGS_DIMENSION", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ingest:
  chunk_size: 100
  chunk_overlap: 100
`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
