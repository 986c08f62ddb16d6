package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.PromptRepository = (*PromptRepo)(nil)

// PromptRepo keeps one pending prompt per chat and kind under
// "<app>:<kind>_process:<chat_id>"; redis expires it with the prompt's ttl.
type PromptRepo struct {
	client Client
	prefix string
}

func NewPromptRepo(client Client, appName string) *PromptRepo {
	return &PromptRepo{client: client, prefix: appName}
}

func (r *PromptRepo) key(conversationID int64, kind model.PromptKind) string {
	return fmt.Sprintf("%s:%s_process:%d", r.prefix, kind, conversationID)
}

func (r *PromptRepo) Save(ctx context.Context, prompt *model.PendingPrompt, ttl time.Duration) error {
	data, err := json.Marshal(prompt)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(prompt.ConversationID, prompt.Kind), data, ttl); err != nil {
		return fmt.Errorf("save %s prompt: %w: %w", prompt.Kind, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PromptRepo) Find(ctx context.Context, conversationID int64, kind model.PromptKind) (*model.PendingPrompt, error) {
	data, err := r.client.Get(ctx, r.key(conversationID, kind))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s prompt: %w: %w", kind, domain.ErrStoreUnavailable, err)
	}
	var prompt model.PendingPrompt
	if err := json.Unmarshal([]byte(data), &prompt); err != nil {
		// unreadable entries are treated as absent; the next BeginPrompt overwrites them
		return nil, nil
	}
	return &prompt, nil
}

func (r *PromptRepo) Delete(ctx context.Context, conversationID int64, kind model.PromptKind) error {
	if err := r.client.Del(ctx, r.key(conversationID, kind)); err != nil {
		return fmt.Errorf("delete %s prompt: %w: %w", kind, domain.ErrStoreUnavailable, err)
	}
	return nil
}
