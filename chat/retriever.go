package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hongwoogi/grantrag/embeddings"
	"github.com/hongwoogi/grantrag/grant"
)

const (
	defaultTopK = 3
	// rawContentLimit caps the fallback context taken from a grant whose
	// embeddings were never stored.
	rawContentLimit = 4000
)

// EmbeddingSource provides a grant's stored chunk embeddings in chunk
// order.
type EmbeddingSource interface {
	GetEmbeddings(ctx context.Context, grantID string) ([]grant.ChunkEmbedding, error)
}

// Retriever selects the context passed to answer generation: the stored
// chunks most similar to the question, or progressively coarser sources
// when no embeddings exist, so a query degrades instead of failing.
type Retriever struct {
	source   EmbeddingSource
	embedder embeddings.Embedder
	topK     int
}

func NewRetriever(source EmbeddingSource, embedder embeddings.Embedder) *Retriever {
	return &Retriever{source: source, embedder: embedder, topK: defaultTopK}
}

// Context assembles the retrieval context for a question about g.
func (r *Retriever) Context(ctx context.Context, g *grant.Grant, question string) (string, error) {
	chunks, err := r.source.GetEmbeddings(ctx, g.ID)
	if err != nil {
		return "", fmt.Errorf("load embeddings: %w", err)
	}

	if len(chunks) > 0 {
		return r.rankChunks(ctx, chunks, question)
	}

	if g.RawContent != "" {
		return truncateRunes(g.RawContent, rawContentLimit), nil
	}
	if g.Description != "" {
		return g.Description, nil
	}
	return fmt.Sprintf("사업명: %s\n지원 규모: %s\n접수 기간: %s", g.Title, g.SupportAmount, g.Period), nil
}

func (r *Retriever) rankChunks(ctx context.Context, chunks []grant.ChunkEmbedding, question string) (string, error) {
	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	type scored struct {
		content    string
		similarity float64
	}

	ranked := make([]scored, len(chunks))
	for i, chunk := range chunks {
		sim, err := embeddings.CosineSimilarity(query, chunk.Embedding)
		if err != nil {
			// A dimension mismatch means the stored vectors came from a
			// different model; never compare them silently.
			return "", fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		ranked[i] = scored{content: chunk.Content, similarity: sim}
	}

	// Stable keeps chunk order for ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	top := r.topK
	if top > len(ranked) {
		top = len(ranked)
	}

	contents := make([]string, top)
	for i := 0; i < top; i++ {
		contents[i] = ranked[i].content
	}
	return strings.Join(contents, "\n\n"), nil
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
