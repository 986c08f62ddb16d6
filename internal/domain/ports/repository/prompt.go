package repository

import (
	"context"
	"time"

	"telegram-exchange-assistant/internal/domain/model"
)

// PromptRepository is the key-value port behind the conversation correlator.
//
// Find returns (nil, nil) when no record is stored. I/O failures are wrapped in
// domain.ErrStoreUnavailable. Save overwrites any record for the same conversation and kind.
type PromptRepository interface {
	Save(ctx context.Context, prompt *model.PendingPrompt, ttl time.Duration) error
	Find(ctx context.Context, conversationID int64, kind model.PromptKind) (*model.PendingPrompt, error)
	Delete(ctx context.Context, conversationID int64, kind model.PromptKind) error
}
