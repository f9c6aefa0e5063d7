// Package analysis extracts structured grant metadata from raw document
// text and generates grounded chat answers, using an ordered list of
// generation models with rate-limit backoff inside each one.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongwoogi/grantrag/llm"
)

var (
	// ErrAllModelsFailed is returned when every configured model failed;
	// it wraps the last underlying error.
	ErrAllModelsFailed = errors.New("all analysis models failed")
	// ErrParseFailure indicates the model response contained no parseable
	// JSON object.
	ErrParseFailure = errors.New("failed to parse analysis response")
)

const (
	maxAttempts = 3
	backoffUnit = 2 * time.Second
)

// GrantAnalysis is the structured metadata extracted from one grant
// announcement. Field names mirror the persisted grant record minus
// identity and status.
type GrantAnalysis struct {
	Title             string   `json:"title"`
	GrantType         string   `json:"grantType"`
	SupportAmount     string   `json:"supportAmount"`
	Period            string   `json:"period"`
	Deadline          string   `json:"deadline"`
	Description       string   `json:"description"`
	Region            string   `json:"region"`
	Industry          string   `json:"industry"`
	Eligibility       string   `json:"eligibility"`
	RequiredDocuments []string `json:"requiredDocuments"`
}

// Client drives document analysis and answer generation over a fixed
// priority list of models: the first is the primary, the rest are
// fallbacks tried in order on any failure.
type Client struct {
	models []llm.Client
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(models []llm.Client, logger zerolog.Logger) *Client {
	return &Client{
		models: models,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Analyze extracts structured grant metadata from raw document text.
// Model fallback happens during generation; the response of the first
// successful model is parsed exactly once.
func (c *Client) Analyze(ctx context.Context, documentText string) (*GrantAnalysis, error) {
	text, err := c.generate(ctx, analyzePrompt(documentText))
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var result GrantAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParseFailure, err)
	}

	return &result, nil
}

// GenerateAnswer produces a natural-language answer to a question about
// one grant, grounded in the supplied context.
func (c *Client) GenerateAnswer(ctx context.Context, question, docContext, grantTitle string) (string, error) {
	return c.generate(ctx, answerPrompt(question, docContext, grantTitle))
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if len(c.models) == 0 {
		return "", fmt.Errorf("no analysis models configured")
	}

	var lastErr error
	for _, model := range c.models {
		text, err := c.generateWithRetry(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn().Err(err).Str("model", model.Model()).Msg("model attempt failed, trying next")
		lastErr = err
	}

	return "", fmt.Errorf("%w: %w", ErrAllModelsFailed, lastErr)
}

func (c *Client) generateWithRetry(ctx context.Context, model llm.Client, prompt string) (string, error) {
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := model.Generate(ctx, messages)
		if err == nil {
			return text, nil
		}
		if !llm.IsRateLimit(err) {
			return "", err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		c.logger.Debug().Str("model", model.Model()).Int("attempt", attempt).Msg("rate limited, backing off")
		if serr := c.sleep(ctx, time.Duration(attempt)*backoffUnit); serr != nil {
			return "", serr
		}
	}

	return "", fmt.Errorf("rate limited after %d attempts: %w", maxAttempts, lastErr)
}

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

func analyzePrompt(content string) string {
	return fmt.Sprintf(`다음은 정부지원사업 공고문입니다. 아래 내용을 분석하여 JSON 형식으로 정보를 추출해주세요.

공고문 내용:
%s

다음 형식으로 응답해주세요 (JSON만 응답, 다른 텍스트 없이):
{
  "title": "사업명",
  "grantType": "공고 유형 (창업지원, R&D, 수출지원, 인력양성, 시설투자 등)",
  "supportAmount": "지원 규모 (예: 최대 5,000만원)",
  "period": "접수 기간 (예: 2024-01-01 ~ 2024-06-30)",
  "deadline": "결과보고 마감일 또는 사업종료일",
  "description": "사업 개요 요약 (2-3문장)",
  "region": "지원 지역 (서울, 경기, 전국 등)",
  "industry": "대상 분야 (핵심 키워드 1-3개, 쉼표로 구분. 예: IT, 바이오, 제조)",
  "eligibility": "신청 자격 요약",
  "requiredDocuments": ["필요 서류1", "필요 서류2"]
}`, content)
}

func answerPrompt(question, context, grantTitle string) string {
	return fmt.Sprintf(`당신은 정부지원사업 공고 전문 상담 AI입니다.
사용자가 "%s" 공고에 대해 질문하고 있습니다.

관련 공고 내용:
%s

사용자 질문: %s

위 공고 내용을 바탕으로 친절하고 정확하게 답변해주세요.
공고 내용에 없는 정보는 추측하지 말고, 해당 정보가 공고에 명시되어 있지 않다고 안내해주세요.
답변은 한국어로 작성해주세요.`, grantTitle, context, question)
}
