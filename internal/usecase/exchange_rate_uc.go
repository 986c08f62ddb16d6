package usecase

import (
	"context"
	"fmt"
	"strings"

	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/domain/ports/repository"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ExchangeRateUseCase = (*exchangeRateUC)(nil)

type ExchangeRateUseCase interface {
	// RequestRates posts the reply-required format instructions in chatID.
	RequestRates(ctx context.Context, chatID int64) error
	// BroadcastRequest asks every vendor group the bot is in for fresh rates.
	BroadcastRequest(ctx context.Context) (int, error)
	// HandleReply processes msg when it answers the chat's exchange rate prompt.
	HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error)
}

type exchangeRateUC struct {
	correlator Correlator
	parser     *RateParser
	catalog    repository.CurrencyCatalog
	assistant  adapter.AssistantAPI
	groups     repository.ChatGroupRepository
	bot        adapter.TelegramBotAdapter
	tr         *i18n.Translator
	policy     FlowPolicy
	log        *zerolog.Logger
}

func NewExchangeRateUseCase(
	correlator Correlator,
	parser *RateParser,
	catalog repository.CurrencyCatalog,
	assistant adapter.AssistantAPI,
	groups repository.ChatGroupRepository,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	policy FlowPolicy,
	logger *zerolog.Logger,
) *exchangeRateUC {
	return &exchangeRateUC{
		correlator: correlator,
		parser:     parser,
		catalog:    catalog,
		assistant:  assistant,
		groups:     groups,
		bot:        bot,
		tr:         tr,
		policy:     policy,
		log:        logger,
	}
}

func (uc *exchangeRateUC) RequestRates(ctx context.Context, chatID int64) error {
	defer logging.TraceDuration(uc.log, "ExchangeRateUC.RequestRates")()

	msgID, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:     chatID,
		Text:       uc.tr.T("exchange_rate.prompt", humanDuration(uc.policy.TTL)),
		ParseMode:  adapter.ParseModeMarkdownV2,
		ForceReply: true,
	})
	if err != nil {
		return fmt.Errorf("send exchange rate prompt: %w", err)
	}
	if err := uc.correlator.BeginPrompt(ctx, chatID, model.PromptExchangeRate, msgID, nil, uc.policy.TTL); err != nil {
		uc.tryLater(ctx, chatID, 0)
		return fmt.Errorf("track exchange rate prompt: %w", err)
	}
	return nil
}

func (uc *exchangeRateUC) BroadcastRequest(ctx context.Context) (int, error) {
	defer logging.TraceDuration(uc.log, "ExchangeRateUC.BroadcastRequest")()

	vendors, err := uc.groups.ListByBotType(ctx, repository.NoTX, model.BotTypeVendors, true)
	if err != nil {
		return 0, fmt.Errorf("list vendor groups: %w", err)
	}
	buttons := [][]adapter.InlineButton{{{
		Text: uc.tr.T("exchange_rate.provide_button"),
		Data: model.CallbackData(model.CallbackExchangeRate, model.ExchangeRateProvideArg),
	}}}
	text := uc.tr.T("exchange_rate.request", humanDuration(uc.policy.TTL))

	sent := 0
	for _, g := range vendors {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:    g.ID,
			Text:      text,
			ParseMode: adapter.ParseModeHTML,
			Buttons:   buttons,
		})
		if err != nil {
			uc.log.Error().Err(err).Int64("chat_id", g.ID).Msg("exchange rate request not delivered")
			continue
		}
		sent++
	}
	uc.log.Info().Int("sent", sent).Int("vendors", len(vendors)).Msg("exchange rate request broadcast")
	return sent, nil
}

func (uc *exchangeRateUC) HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error) {
	defer logging.TraceDuration(uc.log, "ExchangeRateUC.HandleReply")()

	prompt, err := uc.correlator.ResolveReply(ctx, msg.ChatID, model.PromptExchangeRate, msg.ReplyToMessageID)
	if err != nil {
		uc.tryLater(ctx, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("resolve exchange rate reply: %w", err)
	}
	if prompt == nil {
		return false, nil
	}

	currencies, err := uc.catalog.ListCurrencies(ctx)
	if err != nil {
		metrics.IncRateSubmission("failed", 0)
		uc.tryLater(ctx, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("load currencies: %w", err)
	}

	result := uc.parser.Parse(msg.Text, currencies)
	if !result.OK() {
		metrics.IncRateSubmission("rejected", len(result.Rejected))
		_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:           msg.ChatID,
			Text:             uc.tr.T("exchange_rate.invalid_format", escapeMarkdownV2Code(strings.Join(result.Rejected, ","))),
			ParseMode:        adapter.ParseModeMarkdownV2,
			ReplyToMessageID: msg.MessageID,
		})
		return true, err
	}

	if err := uc.assistant.UpdateExchangeRate(ctx, msg.ChatID, result.Accepted); err != nil {
		metrics.IncRateSubmission("failed", 0)
		uc.tryLater(ctx, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("submit exchange rates: %w", err)
	}
	metrics.IncRateSubmission("accepted", 0)

	if _, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           msg.ChatID,
		Text:             uc.tr.T("exchange_rate.thanks"),
		ReplyToMessageID: msg.MessageID,
	}); err != nil {
		uc.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("exchange rate thanks not delivered")
	}

	if uc.policy.ClearOnSuccess {
		if err := uc.correlator.EndPrompt(ctx, msg.ChatID, model.PromptExchangeRate); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("exchange rate prompt not cleared")
		}
	}
	return true, nil
}

func (uc *exchangeRateUC) tryLater(ctx context.Context, chatID int64, replyTo int) {
	sendTryLater(ctx, uc.bot, uc.tr, uc.log, chatID, replyTo)
}
