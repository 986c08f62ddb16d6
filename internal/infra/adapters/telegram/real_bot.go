package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/config"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/metrics"
)

// Compile-time check
var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// AllowedUpdates are the update types the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RealTelegramBotAdapter is the outbound side of the bot, built on tgbotapi.
type RealTelegramBotAdapter struct {
	bot  botAPI
	self tgbotapi.User
	log  *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")
	return newRealTelegramBotAdapter(bot, bot.Self, logger), nil
}

func newRealTelegramBotAdapter(bot botAPI, self tgbotapi.User, logger *zerolog.Logger) *RealTelegramBotAdapter {
	return &RealTelegramBotAdapter{bot: bot, self: self, log: logger}
}

// Self is the bot's own account.
func (r *RealTelegramBotAdapter) Self() tgbotapi.User { return r.self }

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	msg.ReplyToMessageID = params.ReplyToMessageID
	msg.AllowSendingWithoutReply = true
	switch {
	case len(params.Buttons) > 0:
		msg.ReplyMarkup = buildKeyboard(params.Buttons)
	case params.ForceReply:
		msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: params.ReplyToMessageID != 0}
	}

	sent, err := r.bot.Send(msg)
	if err != nil {
		metrics.IncSendFailure("sendMessage")
		return 0, fmt.Errorf("send message to %d: %w", params.ChatID, err)
	}
	return sent.MessageID, nil
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, params adapter.SendPhotoParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	photo := tgbotapi.NewPhoto(params.ChatID, tgbotapi.FileBytes{Name: params.FileName, Bytes: params.Data})
	photo.Caption = params.Caption
	photo.ParseMode = params.ParseMode
	if len(params.Buttons) > 0 {
		photo.ReplyMarkup = buildKeyboard(params.Buttons)
	}

	sent, err := r.bot.Send(photo)
	if err != nil {
		metrics.IncSendFailure("sendPhoto")
		return 0, fmt.Errorf("send photo to %d: %w", params.ChatID, err)
	}
	return sent.MessageID, nil
}

func (r *RealTelegramBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// no reply markup drops the inline keyboard
	if _, err := r.bot.Request(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		metrics.IncSendFailure("editMessageText")
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) ClearButtons(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if _, err := r.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		metrics.IncSendFailure("editMessageReplyMarkup")
		return fmt.Errorf("clear buttons of %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) LeaveChat(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.bot.Request(tgbotapi.LeaveChatConfig{ChatID: chatID}); err != nil {
		metrics.IncSendFailure("leaveChat")
		return fmt.Errorf("leave chat %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback stops the client spinner, showing text as a toast when set.
func (r *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		metrics.IncSendFailure("answerCallbackQuery")
		return err
	}
	return nil
}

// SetupCommands registers the command menu shown in group chats.
func (r *RealTelegramBotAdapter) SetupCommands(ctx context.Context, tr *i18n.Translator) error {
	commands := []tgbotapi.BotCommand{
		{Command: "provide_exchange_rate", Description: tr.T("cmd.provide_exchange_rate")},
		{Command: "payment_account_status", Description: tr.T("cmd.payment_account_status")},
		{Command: "help", Description: tr.T("cmd.help")},
	}
	cfg := tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeAllGroupChats(), commands...)
	if _, err := r.bot.Request(cfg); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}
	return nil
}

// SetupWebhook points Telegram at url. secret, when set, is echoed back by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header.
func (r *RealTelegramBotAdapter) SetupWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", url)
	params.AddNonEmpty("secret_token", secret)
	params.AddNonEmpty("allowed_updates", `["`+strings.Join(AllowedUpdates, `","`)+`"]`)
	resp, err := r.bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	r.log.Info().Str("url", url).Msg("telegram webhook registered")
	return nil
}

// DeleteWebhook switches the bot back to getUpdates.
func (r *RealTelegramBotAdapter) DeleteWebhook(ctx context.Context) error {
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// buildKeyboard converts button rows to an inline keyboard.
// URL buttons open a link, others send their callback data.
func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kb := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kb)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
