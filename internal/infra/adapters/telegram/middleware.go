package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"

	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/metrics"
	red "telegram-exchange-assistant/internal/infra/redis"
)

// instrument adds a trace id and the chat and user to ctx, recovers panics, records
// metrics and logs the outcome.
func (d *Dispatcher) instrument(name string, next updateHandler) updateHandler {
	return func(ctx context.Context, up tgbotapi.Update) (err error) {
		start := time.Now()
		ctx = logging.WithTraceID(ctx, ulid.Make().String())
		chatID, userID := updateIDs(up)
		if chatID != 0 {
			ctx = logging.WithChatID(ctx, chatID)
		}
		if userID != 0 {
			ctx = logging.WithUserID(ctx, userID)
		}
		log := logging.With(ctx, d.log)

		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic in %s handler: %v", name, rec)
				log.Error().Str("stack", string(debug.Stack())).Msg("update handler panicked")
			}
			elapsed := time.Since(start)
			metrics.ObserveUpdate(name, elapsed, err)
			if err != nil {
				log.Error().Err(err).Str("handler", name).Int("update_id", up.UpdateID).Dur("elapsed", elapsed).Msg("update failed")
				return
			}
			log.Debug().Str("handler", name).Int("update_id", up.UpdateID).Dur("elapsed", elapsed).Msg("update handled")
		}()
		return next(ctx, up)
	}
}

// allow applies the per-chat budget for commands and callbacks. Limiter failures let the
// request through.
func (d *Dispatcher) allow(ctx context.Context, chatID int64, action string) bool {
	if d.rateLimiter == nil {
		return true
	}
	ok, err := d.rateLimiter.Allow(ctx, red.ChatActionKey(chatID, action), d.cfg.RateLimit, d.cfg.RateWindow)
	if err != nil {
		logging.With(ctx, d.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

func updateIDs(up tgbotapi.Update) (chatID, userID int64) {
	switch {
	case up.CallbackQuery != nil:
		if up.CallbackQuery.Message != nil && up.CallbackQuery.Message.Chat != nil {
			chatID = up.CallbackQuery.Message.Chat.ID
		}
		if up.CallbackQuery.From != nil {
			userID = up.CallbackQuery.From.ID
		}
	case up.MyChatMember != nil:
		chatID = up.MyChatMember.Chat.ID
		userID = up.MyChatMember.From.ID
	case up.Message != nil:
		if up.Message.Chat != nil {
			chatID = up.Message.Chat.ID
		}
		if up.Message.From != nil {
			userID = up.Message.From.ID
		}
	}
	return chatID, userID
}
