// Package embeddings turns text into fixed-length vectors and ranks them
// by cosine similarity. Providers are rate-limit aware: a 429 response is
// retried with linear backoff before surfacing as a failure.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hongwoogi/grantrag/config"
)

var (
	// ErrRetriesExhausted is returned when every attempt against a
	// rate-limited provider failed.
	ErrRetriesExhausted = errors.New("embedding failed: exhausted retries")
	// ErrVectorLengthMismatch indicates two vectors of different
	// dimensionality were compared. This points at a model or version
	// change and is a data-integrity error, never compared silently.
	ErrVectorLengthMismatch = errors.New("vectors must have the same length")
)

const (
	maxAttempts = 3
	backoffUnit = 2 * time.Second
)

// Embedder turns text into embedding vectors. EmbedBatch is strictly
// sequential and preserves input order: one request completes before the
// next starts, trading ingestion latency for rate-limit headroom.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Options carries provider-independent embedder settings.
type Options struct {
	Provider  string
	Model     string
	Dimension int

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// NewEmbedder builds the embedder selected by the configuration.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	opts := Options{
		Provider:      cfg.Embeddings.Provider,
		Model:         cfg.Embeddings.Model,
		Dimension:     cfg.Embeddings.Dimension,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaEmbedder(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIEmbedder(opts), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryRateLimited runs fn up to maxAttempts times. Rate-limited attempts
// back off attempt*2s before the next try; any other error propagates
// immediately.
func retryRateLimited(ctx context.Context, sleep sleepFunc, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRateLimited(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*backoffUnit); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrRetriesExhausted, lastErr)
}

// statusError carries a raw HTTP status from providers that speak plain
// HTTP instead of a typed SDK error.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.code, e.body)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var st *statusError
	if errors.As(err, &st) {
		return st.code == http.StatusTooManyRequests
	}
	return false
}
