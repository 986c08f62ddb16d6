package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/usecase"
)

// BotFacade composes the use cases behind the Telegram routes.
type BotFacade struct {
	RatesUC    usecase.ExchangeRateUseCase
	PaymentsUC usecase.PaymentAccountUseCase
	AccountsUC usecase.AccountUseCase

	botType model.BotType
	log     *zerolog.Logger
}

func NewBotFacade(
	ratesUC usecase.ExchangeRateUseCase,
	paymentsUC usecase.PaymentAccountUseCase,
	accountsUC usecase.AccountUseCase,
	botType model.BotType,
	logger *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		RatesUC:    ratesUC,
		PaymentsUC: paymentsUC,
		AccountsUC: accountsUC,
		botType:    botType,
		log:        logger,
	}
}

// HandleText records the sender and the group, then offers a reply to the pending reply
// flows, exchange rate first. A failed account write stops the message there.
func (b *BotFacade) HandleText(ctx context.Context, msg model.InboundMessage) error {
	err := b.AccountsUC.SetupAccountInfo(ctx, msg.From, msg.Group(b.botType))
	switch {
	case errors.Is(err, domain.ErrNotGroupChat):
		logging.With(ctx, b.log).Debug().Str("chat_type", msg.ChatType).Msg("sender outside a group not recorded")
	case err != nil:
		return fmt.Errorf("setup account info: %w", err)
	}

	if msg.ReplyToMessageID == 0 {
		return nil
	}
	handled, err := b.RatesUC.HandleReply(ctx, msg)
	if err != nil {
		return fmt.Errorf("exchange rate reply: %w", err)
	}
	if handled {
		return nil
	}
	if _, err := b.PaymentsUC.HandleReply(ctx, msg); err != nil {
		return fmt.Errorf("payment account reply: %w", err)
	}
	return nil
}

// HandleMembersJoined records new human members; a joining bot account is the bot itself
// or another bot, both handled elsewhere.
func (b *BotFacade) HandleMembersJoined(ctx context.Context, msg model.InboundMessage, members []model.TelegramAccount) error {
	if !model.IsGroupChat(msg.ChatType) {
		return nil
	}
	return b.AccountsUC.MembersJoined(ctx, msg.Group(b.botType), members)
}

func (b *BotFacade) HandleMemberLeft(ctx context.Context, chatID int64, member model.TelegramAccount) error {
	return b.AccountsUC.MemberLeft(ctx, chatID, member)
}

func (b *BotFacade) HandleChatMemberChange(ctx context.Context, change model.ChatMemberChange) error {
	return b.AccountsUC.TrackChat(ctx, change)
}
