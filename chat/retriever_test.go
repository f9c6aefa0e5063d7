package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongwoogi/grantrag/grant"
)

// fixedEmbedder returns the same vector for every input.
type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, nil
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

type staticSource struct {
	chunks []grant.ChunkEmbedding
}

func (s *staticSource) GetEmbeddings(_ context.Context, _ string) ([]grant.ChunkEmbedding, error) {
	return s.chunks, nil
}

func TestRetrieverRanksTopChunks(t *testing.T) {
	// Query points along the x axis; chunks are ordered worst-first so the
	// ranking has to reorder them.
	source := &staticSource{chunks: []grant.ChunkEmbedding{
		{Index: 0, Content: "무관한 내용", Embedding: []float32{0, 1}},
		{Index: 1, Content: "약간 관련", Embedding: []float32{1, 1}},
		{Index: 2, Content: "가장 관련", Embedding: []float32{1, 0}},
		{Index: 3, Content: "반대 방향", Embedding: []float32{-1, 0}},
		{Index: 4, Content: "거의 관련", Embedding: []float32{1, 0.1}},
	}}
	r := NewRetriever(source, &fixedEmbedder{vec: []float32{1, 0}})

	got, err := r.Context(context.Background(), &grant.Grant{ID: "GRANT-1"}, "지원 자격이 어떻게 되나요?")
	require.NoError(t, err)

	parts := strings.Split(got, "\n\n")
	assert.Equal(t, []string{"가장 관련", "거의 관련", "약간 관련"}, parts)
}

func TestRetrieverReturnsAllChunksWhenFewerThanTopK(t *testing.T) {
	source := &staticSource{chunks: []grant.ChunkEmbedding{
		{Index: 0, Content: "하나", Embedding: []float32{1, 0}},
		{Index: 1, Content: "둘", Embedding: []float32{0, 1}},
	}}
	r := NewRetriever(source, &fixedEmbedder{vec: []float32{1, 0}})

	got, err := r.Context(context.Background(), &grant.Grant{ID: "GRANT-1"}, "질문")
	require.NoError(t, err)
	assert.Equal(t, "하나\n\n둘", got)
}

func TestRetrieverDimensionMismatchIsFatal(t *testing.T) {
	source := &staticSource{chunks: []grant.ChunkEmbedding{
		{Index: 0, Content: "청크", Embedding: []float32{1, 0, 0}},
	}}
	r := NewRetriever(source, &fixedEmbedder{vec: []float32{1, 0}})

	_, err := r.Context(context.Background(), &grant.Grant{ID: "GRANT-1"}, "질문")
	assert.Error(t, err)
}

func TestRetrieverFallsBackToRawContent(t *testing.T) {
	r := NewRetriever(&staticSource{}, &fixedEmbedder{vec: []float32{1}})

	long := strings.Repeat("가", 5000)
	got, err := r.Context(context.Background(), &grant.Grant{ID: "GRANT-1", RawContent: long}, "질문")
	require.NoError(t, err)
	assert.Equal(t, 4000, len([]rune(got)))
	assert.Equal(t, strings.Repeat("가", 4000), got)
}

func TestRetrieverFallsBackToDescription(t *testing.T) {
	r := NewRetriever(&staticSource{}, &fixedEmbedder{vec: []float32{1}})

	got, err := r.Context(context.Background(), &grant.Grant{ID: "GRANT-1", Description: "사업 개요 요약"}, "질문")
	require.NoError(t, err)
	assert.Equal(t, "사업 개요 요약", got)
}

func TestRetrieverFallsBackToSummaryLine(t *testing.T) {
	r := NewRetriever(&staticSource{}, &fixedEmbedder{vec: []float32{1}})

	g := &grant.Grant{
		ID:            "GRANT-1",
		Title:         "청년창업 지원사업",
		SupportAmount: "최대 5,000만원",
		Period:        "2025-01-01 ~ 2025-12-31",
	}
	got, err := r.Context(context.Background(), g, "질문")
	require.NoError(t, err)
	assert.Equal(t, "사업명: 청년창업 지원사업\n지원 규모: 최대 5,000만원\n접수 기간: 2025-01-01 ~ 2025-12-31", got)
}
