// Package chat answers free-form questions about a stored grant using
// retrieval-augmented generation and keeps the linear conversation
// history for the active document session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongwoogi/grantrag/grant"
	"github.com/hongwoogi/grantrag/store"
)

// ErrGrantNotFound is returned when a question references a grant id
// that no store holds.
var ErrGrantNotFound = errors.New("grant not found")

const (
	apologyGeneration = "죄송합니다. 답변을 생성하는 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	apologyNotFound   = "공고를 찾을 수 없습니다."
)

// GrantSource provides the grants questions refer to.
type GrantSource interface {
	GetGrant(ctx context.Context, id string) (*grant.Grant, error)
}

// AnswerGenerator produces a grounded natural-language answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, docContext, grantTitle string) (string, error)
}

// Service orchestrates question answering. Internal failures surface as
// an apology message in the conversation rather than a fault that breaks
// the session; only context cancellation is returned as an error.
type Service struct {
	grants    GrantSource
	retriever *Retriever
	generator AnswerGenerator
	logger    zerolog.Logger
	now       func() time.Time

	mu          sync.Mutex
	activeGrant string
	history     []Message
}

func NewService(grants GrantSource, retriever *Retriever, generator AnswerGenerator, logger zerolog.Logger) *Service {
	return &Service{
		grants:    grants,
		retriever: retriever,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// SetActiveGrant switches the conversation to a document. Changing the
// active document discards the history; the conversation lifetime is one
// document session.
func (s *Service) SetActiveGrant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeGrant != id {
		s.activeGrant = id
		s.history = nil
	}
}

// History returns a copy of the conversation so far.
func (s *Service) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Ask answers a question about the given grant and appends both turns to
// the conversation.
func (s *Service) Ask(ctx context.Context, grantID, question string) (Message, error) {
	s.SetActiveGrant(grantID)
	s.append(NewMessage(RoleUser, question, s.now()))

	answer, err := s.answer(ctx, grantID, question)
	if err != nil {
		if ctx.Err() != nil {
			return Message{}, ctx.Err()
		}
		s.logger.Error().Err(err).Str("grant", grantID).Msg("question answering failed")
		answer = apologyFor(err)
	}

	reply := NewMessage(RoleAssistant, answer, s.now())
	s.append(reply)
	return reply, nil
}

func (s *Service) answer(ctx context.Context, grantID, question string) (string, error) {
	g, err := s.grants.GetGrant(ctx, grantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrGrantNotFound, grantID)
		}
		return "", fmt.Errorf("load grant: %w", err)
	}

	docContext, err := s.retriever.Context(ctx, g, question)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := s.generator.GenerateAnswer(ctx, question, docContext, g.Title)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

func (s *Service) append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

func apologyFor(err error) string {
	if errors.Is(err, ErrGrantNotFound) {
		return apologyNotFound
	}
	return apologyGeneration
}
