// Package ingestion drives the upload pipeline: extract text from the
// document, analyze it into structured grant metadata, chunk and embed
// the raw content, and persist the result.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongwoogi/grantrag/analysis"
	"github.com/hongwoogi/grantrag/embeddings"
	"github.com/hongwoogi/grantrag/extract"
	"github.com/hongwoogi/grantrag/grant"
	"github.com/hongwoogi/grantrag/store"
)

// Analyzer is the slice of the analysis client the pipeline needs.
type Analyzer interface {
	Analyze(ctx context.Context, documentText string) (*analysis.GrantAnalysis, error)
}

// Gateway is the slice of the persistence gateway the pipeline needs.
type Gateway interface {
	SaveGrant(ctx context.Context, g *grant.Grant) (store.WriteOutcome, error)
	SaveEmbeddings(ctx context.Context, grantID string, chunks []grant.ChunkEmbedding) (store.WriteOutcome, error)
}

// Service runs the ingestion pipeline for uploaded grant documents.
type Service struct {
	analyzer Analyzer
	embedder embeddings.Embedder
	gateway  Gateway
	logger   zerolog.Logger

	chunkSize    int
	chunkOverlap int
	timeout      time.Duration
	now          func() time.Time
}

// Option tunes a Service.
type Option func(*Service)

// WithChunking overrides the default chunk window.
func WithChunking(size, overlap int) Option {
	return func(s *Service) {
		s.chunkSize = size
		s.chunkOverlap = overlap
	}
}

// WithTimeout sets a wall-clock deadline for one whole ingestion. Zero
// disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(analyzer Analyzer, embedder embeddings.Embedder, gateway Gateway, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		analyzer:     analyzer,
		embedder:     embedder,
		gateway:      gateway,
		logger:       logger,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest runs the full pipeline for one uploaded document and returns the
// stored grant. Progress is pushed to onStatus at every transition; on
// failure the observer sees the error step with the triggering message
// and the error is returned. Persistence degradation is not a failure:
// the record lands in the fallback store and ingestion still completes.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte, onStatus StatusFunc) (*grant.Grant, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if s.chunkSize <= 0 || s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("invalid chunk window: size %d, overlap %d", s.chunkSize, s.chunkOverlap)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	notify := func(step Step, message string, progress int) {
		if onStatus != nil {
			onStatus(ProcessingStatus{Step: step, Message: message, Progress: progress})
		}
	}
	fail := func(err error) error {
		notify(StepError, err.Error(), 0)
		return err
	}

	notify(StepParsing, "문서를 파싱하고 있습니다...", progressParsing)

	format := extract.DetectFormat(filename)
	extractor, err := extract.ForFormat(format)
	if err != nil {
		return nil, fail(fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, filename))
	}

	result, err := extractor.Extract(ctx, data)
	if err != nil {
		return nil, fail(fmt.Errorf("extract %s text: %w", format, err))
	}

	s.logger.Info().Str("file", filename).Int("units", result.Units).
		Int("characters", len(result.Text)).Msg("document parsed")

	if len(result.Text) < extract.MinTextLength {
		return nil, fail(fmt.Errorf("%w: got %d characters, document may be image-only",
			extract.ErrEmptyExtraction, len(result.Text)))
	}

	notify(StepAnalyzing, "AI가 공고 내용을 분석하고 있습니다...", progressAnalyzing)

	meta, err := s.analyzer.Analyze(ctx, result.Text)
	if err != nil {
		return nil, fail(fmt.Errorf("analyze document: %w", err))
	}

	notify(StepEmbedding, "문서를 임베딩하고 있습니다...", progressEmbedding)

	chunks := ChunkText(result.Text, s.chunkSize, s.chunkOverlap)
	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fail(fmt.Errorf("generate embeddings: %w", err))
	}
	if len(vectors) != len(chunks) {
		return nil, fail(fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors)))
	}

	notify(StepSaving, "데이터베이스에 저장하고 있습니다...", progressSaving)

	now := s.now()
	g := &grant.Grant{
		ID:                grant.NewID(now),
		Title:             meta.Title,
		SupportAmount:     meta.SupportAmount,
		Period:            meta.Period,
		Deadline:          meta.Deadline,
		Description:       meta.Description,
		Region:            meta.Region,
		Industry:          meta.Industry,
		GrantType:         meta.GrantType,
		Eligibility:       meta.Eligibility,
		RequiredDocuments: meta.RequiredDocuments,
		RawContent:        result.Text,
		Status:            grant.DeriveStatus(meta.Period, meta.Deadline, now),
	}

	outcome, err := s.gateway.SaveGrant(ctx, g)
	if err != nil {
		return nil, fail(fmt.Errorf("save grant: %w", err))
	}
	if outcome == store.WriteDegraded {
		s.logger.Warn().Str("grant", g.ID).Msg("grant stored in fallback only")
	}

	pairs := make([]grant.ChunkEmbedding, len(chunks))
	for i := range chunks {
		pairs[i] = grant.ChunkEmbedding{Index: i, Content: chunks[i], Embedding: vectors[i]}
	}

	outcome, err = s.gateway.SaveEmbeddings(ctx, g.ID, pairs)
	if err != nil {
		return nil, fail(fmt.Errorf("save embeddings: %w", err))
	}
	if outcome == store.WriteDegraded {
		s.logger.Warn().Str("grant", g.ID).Msg("embeddings stored in fallback only")
	}

	notify(StepComplete, "처리 완료!", progressComplete)

	s.logger.Info().Str("grant", g.ID).Int("chunks", len(chunks)).Msg("document ingested")
	return g, nil
}
