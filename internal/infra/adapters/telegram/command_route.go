package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/infra/logging"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (d *Dispatcher) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":                  d.devOnly(d.handleStartCommand),
		"help":                   d.handleHelpCommand,
		"provide_exchange_rate":  d.groupOnly(d.handleProvideExchangeRateCommand),
		"payment_account_status": d.groupOnly(d.handlePaymentAccountStatusCommand),
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, up tgbotapi.Update) error {
	message := up.Message
	if !d.addressedToMe(message) {
		return nil
	}
	command := message.Command()
	fn, ok := d.commandRoutes()[command]
	if !ok {
		return nil
	}
	if !d.allow(ctx, message.Chat.ID, "/"+command) {
		return d.reply(ctx, message, d.translator.T("common.rate_limited"))
	}
	return fn(ctx, message)
}

// addressedToMe drops commands written as /cmd@other_bot.
func (d *Dispatcher) addressedToMe(message *tgbotapi.Message) bool {
	withAt := message.CommandWithAt()
	i := strings.Index(withAt, "@")
	if i < 0 {
		return true
	}
	return strings.EqualFold(withAt[i+1:], d.bot.Self().UserName)
}

func (d *Dispatcher) devOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !d.dev {
			return nil
		}
		return next(ctx, message)
	}
}

func (d *Dispatcher) groupOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !model.IsGroupChat(message.Chat.Type) {
			logging.With(ctx, d.log).Debug().Str("command", message.Command()).Msg("group command outside a group")
			return nil
		}
		return next(ctx, message)
	}
}

func (d *Dispatcher) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return d.reply(ctx, message, d.translator.T("common.start", toAccount(message.From).DisplayName()))
}

func (d *Dispatcher) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return d.reply(ctx, message, d.translator.T("common.help"))
}

func (d *Dispatcher) handleProvideExchangeRateCommand(ctx context.Context, message *tgbotapi.Message) error {
	return d.facade.RatesUC.RequestRates(ctx, message.Chat.ID)
}

func (d *Dispatcher) handlePaymentAccountStatusCommand(ctx context.Context, message *tgbotapi.Message) error {
	return d.facade.PaymentsUC.AskStatus(ctx, message.Chat.ID)
}

func (d *Dispatcher) reply(ctx context.Context, message *tgbotapi.Message, text string) error {
	_, err := d.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           message.Chat.ID,
		Text:             text,
		ReplyToMessageID: message.MessageID,
	})
	return err
}
