package usecase

import (
	"context"
	"fmt"
	"time"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/repository"
	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ Correlator = (*correlator)(nil)

// Correlator tracks one outstanding reply-required prompt per conversation and flow kind.
type Correlator interface {
	BeginPrompt(ctx context.Context, conversationID int64, kind model.PromptKind, promptMessageID int, payload map[string]string, ttl time.Duration) error
	// ResolveReply returns nil without error when the message does not answer a live prompt.
	ResolveReply(ctx context.Context, conversationID int64, kind model.PromptKind, replyToMessageID int) (*model.PendingPrompt, error)
	EndPrompt(ctx context.Context, conversationID int64, kind model.PromptKind) error
}

type correlator struct {
	prompts repository.PromptRepository
	now     func() time.Time
	log     *zerolog.Logger
}

func NewCorrelator(prompts repository.PromptRepository, logger *zerolog.Logger) *correlator {
	return &correlator{
		prompts: prompts,
		now:     time.Now,
		log:     logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *correlator) WithClock(now func() time.Time) *correlator {
	c.now = now
	return c
}

func (c *correlator) BeginPrompt(ctx context.Context, conversationID int64, kind model.PromptKind, promptMessageID int, payload map[string]string, ttl time.Duration) error {
	defer logging.TraceDuration(c.log, "Correlator.BeginPrompt")()

	if ttl <= 0 {
		return fmt.Errorf("prompt ttl %s: %w", ttl, domain.ErrInvalidArgument)
	}
	prompt, err := model.NewPendingPrompt(conversationID, kind, promptMessageID, payload, c.now().Add(ttl))
	if err != nil {
		return err
	}
	if err := c.prompts.Save(ctx, prompt, ttl); err != nil {
		return err
	}
	metrics.IncPrompt(string(kind), "begun")
	c.log.Debug().
		Int64("chat_id", conversationID).
		Str("kind", string(kind)).
		Int("prompt_message_id", promptMessageID).
		Dur("ttl", ttl).
		Msg("prompt started")
	return nil
}

func (c *correlator) ResolveReply(ctx context.Context, conversationID int64, kind model.PromptKind, replyToMessageID int) (*model.PendingPrompt, error) {
	defer logging.TraceDuration(c.log, "Correlator.ResolveReply")()

	if replyToMessageID == 0 {
		return nil, nil
	}
	prompt, err := c.prompts.Find(ctx, conversationID, kind)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, nil
	}
	// The store normally drops the key on expiry; the timestamp covers stores that do not.
	if prompt.Expired(c.now()) {
		metrics.IncPrompt(string(kind), "expired")
		return nil, nil
	}
	if !prompt.Matches(replyToMessageID) {
		return nil, nil
	}
	metrics.IncPrompt(string(kind), "resolved")
	return prompt, nil
}

func (c *correlator) EndPrompt(ctx context.Context, conversationID int64, kind model.PromptKind) error {
	defer logging.TraceDuration(c.log, "Correlator.EndPrompt")()

	if err := c.prompts.Delete(ctx, conversationID, kind); err != nil {
		return err
	}
	metrics.IncPrompt(string(kind), "ended")
	return nil
}
