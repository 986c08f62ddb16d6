package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PaymentAccountUseCase = (*paymentAccountUC)(nil)

type PaymentAccountUseCase interface {
	RequestPaymentAccount(ctx context.Context, req model.PaymentAccountRequest) (int, error)
	HurryPaymentAccount(ctx context.Context, req model.PaymentAccountRequest) (int, error)
	ProvidePaymentAccount(ctx context.Context, chatID int64, ref model.PaymentRef) error
	HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error)
	ReportOutOfStock(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error
	CheckReceipt(ctx context.Context, req model.ReceiptRequest) (int, error)
	ConfirmPay(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error
	AskStatus(ctx context.Context, chatID int64) error
	UpdateStatus(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, status model.PaymentAccountStatus) error
}

type paymentAccountUC struct {
	correlator Correlator
	assistant  adapter.AssistantAPI
	bot        adapter.TelegramBotAdapter
	tr         *i18n.Translator
	policy     FlowPolicy
	dev        bool
	log        *zerolog.Logger
}

func NewPaymentAccountUseCase(
	correlator Correlator,
	assistant adapter.AssistantAPI,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	policy FlowPolicy,
	dev bool,
	logger *zerolog.Logger,
) *paymentAccountUC {
	return &paymentAccountUC{
		correlator: correlator,
		assistant:  assistant,
		bot:        bot,
		tr:         tr,
		policy:     policy,
		dev:        dev,
		log:        logger,
	}
}

func (uc *paymentAccountUC) RequestPaymentAccount(ctx context.Context, req model.PaymentAccountRequest) (int, error) {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.RequestPaymentAccount")()
	return uc.sendRequest(ctx, "payment_account.request", req)
}

func (uc *paymentAccountUC) HurryPaymentAccount(ctx context.Context, req model.PaymentAccountRequest) (int, error) {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.HurryPaymentAccount")()
	return uc.sendRequest(ctx, "payment_account.hurry", req)
}

func (uc *paymentAccountUC) sendRequest(ctx context.Context, key string, req model.PaymentAccountRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	args := req.Ref().CallbackArgs()
	text := uc.tr.T(key,
		escapeMarkdownCode(req.TotalAmount.String()),
		escapeMarkdownCode(req.PaymentCurrency),
		escapeMarkdownCode(req.ExchangeCurrency),
	)
	msgID, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    req.GroupID,
		Text:      text,
		ParseMode: adapter.ParseModeMarkdown,
		Buttons: [][]adapter.InlineButton{{
			{Text: uc.tr.T("payment_account.provide_button"), Data: model.CallbackData(model.CallbackProvidePA, args...)},
			{Text: uc.tr.T("payment_account.out_of_stock_button"), Data: model.CallbackData(model.CallbackOutOfStock, args...)},
		}},
	})
	if err != nil {
		return 0, fmt.Errorf("send payment account request: %w", err)
	}
	uc.log.Info().
		Int64("chat_id", req.GroupID).
		Str("order_id", req.OrderID.String()).
		Int("message_id", msgID).
		Msg("payment account requested")
	return msgID, nil
}

func (uc *paymentAccountUC) ProvidePaymentAccount(ctx context.Context, chatID int64, ref model.PaymentRef) error {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.ProvidePaymentAccount")()

	msgID, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:     chatID,
		Text:       uc.tr.T("payment_account.prompt", humanDuration(uc.policy.TTL)),
		ParseMode:  adapter.ParseModeMarkdownV2,
		ForceReply: true,
	})
	if err != nil {
		return fmt.Errorf("send payment account prompt: %w", err)
	}
	payload := map[string]string{
		model.PayloadCustomerID: strconv.FormatInt(ref.CustomerID, 10),
		model.PayloadOrderID:    ref.OrderID.String(),
	}
	if err := uc.correlator.BeginPrompt(ctx, chatID, model.PromptPaymentAccountInfo, msgID, payload, uc.policy.TTL); err != nil {
		sendTryLater(ctx, uc.bot, uc.tr, uc.log, chatID, 0)
		return fmt.Errorf("track payment account prompt: %w", err)
	}
	return nil
}

func (uc *paymentAccountUC) HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error) {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.HandleReply")()

	prompt, err := uc.correlator.ResolveReply(ctx, msg.ChatID, model.PromptPaymentAccountInfo, msg.ReplyToMessageID)
	if err != nil {
		sendTryLater(ctx, uc.bot, uc.tr, uc.log, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("resolve payment account reply: %w", err)
	}
	if prompt == nil {
		return false, nil
	}

	ref, err := prompt.PaymentRef()
	if err != nil {
		// a prompt without its order can never be answered; drop it
		if endErr := uc.correlator.EndPrompt(ctx, msg.ChatID, model.PromptPaymentAccountInfo); endErr != nil {
			uc.log.Warn().Err(endErr).Msg("broken payment account prompt not cleared")
		}
		sendTryLater(ctx, uc.bot, uc.tr, uc.log, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("payment account prompt payload: %w", err)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:           msg.ChatID,
			Text:             uc.tr.T("payment_account.empty"),
			ParseMode:        adapter.ParseModeMarkdownV2,
			ReplyToMessageID: msg.MessageID,
			ForceReply:       true,
		})
		return true, err
	}

	info := model.PaymentAccountInfo{
		OrderID:     ref.OrderID,
		CustomerID:  ref.CustomerID,
		GroupID:     msg.ChatID,
		MessageID:   msg.MessageID,
		AccountInfo: text,
	}
	if err := uc.assistant.SendPaymentAccount(ctx, info); err != nil {
		sendTryLater(ctx, uc.bot, uc.tr, uc.log, msg.ChatID, msg.MessageID)
		return true, fmt.Errorf("forward payment account: %w", err)
	}
	uc.log.Info().
		Int64("chat_id", msg.ChatID).
		Str("order_id", ref.OrderID.String()).
		Str("account_info", logging.Redact(text, uc.dev)).
		Msg("payment account forwarded")

	if _, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           msg.ChatID,
		Text:             uc.tr.T("payment_account.received"),
		ReplyToMessageID: msg.MessageID,
	}); err != nil {
		uc.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("payment account confirmation not delivered")
	}

	if uc.policy.ClearOnSuccess {
		if err := uc.correlator.EndPrompt(ctx, msg.ChatID, model.PromptPaymentAccountInfo); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("payment account prompt not cleared")
		}
	}
	return true, nil
}

func (uc *paymentAccountUC) ReportOutOfStock(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.ReportOutOfStock")()

	if err := uc.assistant.ReportOutOfStock(ctx, chatID, ref); err != nil {
		return fmt.Errorf("report out of stock: %w", err)
	}
	if err := uc.bot.EditMessage(ctx, chatID, messageID, uc.tr.T("payment_account.out_of_stock_marked", by.DisplayName())); err != nil {
		return fmt.Errorf("mark request out of stock: %w", err)
	}
	return nil
}

func (uc *paymentAccountUC) CheckReceipt(ctx context.Context, req model.ReceiptRequest) (int, error) {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.CheckReceipt")()

	if err := req.Validate(); err != nil {
		return 0, err
	}
	data, err := uc.assistant.GetFile(ctx, req.FileID, req.FileName)
	if err != nil {
		return 0, fmt.Errorf("download receipt: %w", err)
	}
	msgID, err := uc.bot.SendPhoto(ctx, adapter.SendPhotoParams{
		ChatID:    req.GroupID,
		FileName:  req.FileName,
		Data:      data,
		Caption:   uc.tr.T("receipt.caption"),
		ParseMode: adapter.ParseModeMarkdownV2,
		Buttons: [][]adapter.InlineButton{{{
			Text: uc.tr.T("receipt.confirm_button"),
			Data: model.CallbackData(model.CallbackConfirmPay, req.Ref().CallbackArgs()...),
		}}},
	})
	if err != nil {
		return 0, fmt.Errorf("send receipt: %w", err)
	}
	return msgID, nil
}

func (uc *paymentAccountUC) ConfirmPay(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.ConfirmPay")()

	if err := uc.assistant.ConfirmPayment(ctx, chatID, ref); err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	// the receipt is a photo, so the keyboard is dropped and the confirmation goes in a reply
	if err := uc.bot.ClearButtons(ctx, chatID, messageID); err != nil {
		uc.log.Warn().Err(err).Int64("chat_id", chatID).Msg("receipt keyboard not cleared")
	}
	_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           chatID,
		Text:             uc.tr.T("receipt.confirmed", by.DisplayName()),
		ReplyToMessageID: messageID,
	})
	return err
}

func (uc *paymentAccountUC) AskStatus(ctx context.Context, chatID int64) error {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.AskStatus")()

	_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    chatID,
		Text:      uc.tr.T("status.ask"),
		ParseMode: adapter.ParseModeMarkdownV2,
		Buttons: [][]adapter.InlineButton{{
			{Text: uc.tr.T("status.available_button"), Data: model.CallbackData(model.CallbackPAStatus, string(model.PaymentAccountAvailable))},
			{Text: uc.tr.T("status.unavailable_button"), Data: model.CallbackData(model.CallbackPAStatus, string(model.PaymentAccountUnavailable))},
		}},
	})
	return err
}

func (uc *paymentAccountUC) UpdateStatus(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, status model.PaymentAccountStatus) error {
	defer logging.TraceDuration(uc.log, "PaymentAccountUC.UpdateStatus")()

	if err := uc.assistant.UpdatePaymentAccountStatus(ctx, chatID, status); err != nil {
		return fmt.Errorf("update payment account status: %w", err)
	}
	return uc.bot.EditMessage(ctx, chatID, messageID, uc.tr.T("status.updated", string(status), by.DisplayName()))
}
