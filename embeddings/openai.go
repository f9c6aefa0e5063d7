package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type openAIEmbedder struct {
	client    embeddingAPI
	model     string
	dimension int
	sleep     sleepFunc
}

// NewOpenAIEmbedder builds an embedder backed by an OpenAI-compatible
// embeddings endpoint.
func NewOpenAIEmbedder(opts Options) Embedder {
	cfg := openai.DefaultConfig(opts.OpenAIAPIKey)
	if opts.OpenAIBaseURL != "" {
		cfg.BaseURL = opts.OpenAIBaseURL
	}

	return &openAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		sleep:     sleepContext,
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	err := retryRateLimited(ctx, e.sleep, func() error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: []string{text},
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("embeddings response contained no data")
		}
		vec = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.dimension > 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", ErrVectorLengthMismatch, e.dimension, len(vec))
	}

	return vec, nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		results = append(results, vec)
	}
	return results, nil
}
