package usecase

import (
	"context"
	"time"

	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// FlowPolicy configures one reply-driven flow.
type FlowPolicy struct {
	TTL time.Duration
	// ClearOnSuccess ends the prompt after a successful submission; otherwise later
	// replies to the same prompt are processed again until it expires.
	ClearOnSuccess bool
}

func sendTryLater(ctx context.Context, bot adapter.TelegramBotAdapter, tr *i18n.Translator, log *zerolog.Logger, chatID int64, replyTo int) {
	if _, err := bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           chatID,
		Text:             tr.T("common.try_later"),
		ParseMode:        adapter.ParseModeMarkdownV2,
		ReplyToMessageID: replyTo,
	}); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("transient failure notice not delivered")
	}
}
