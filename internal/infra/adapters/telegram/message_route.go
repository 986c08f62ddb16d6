package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-exchange-assistant/internal/domain/model"
)

func (d *Dispatcher) handleText(ctx context.Context, up tgbotapi.Update) error {
	if up.Message.From == nil || up.Message.From.IsBot {
		return nil
	}
	return d.facade.HandleText(ctx, toInbound(up.Message))
}

func (d *Dispatcher) handleNewMembers(ctx context.Context, up tgbotapi.Update) error {
	members := make([]model.TelegramAccount, 0, len(up.Message.NewChatMembers))
	for i := range up.Message.NewChatMembers {
		members = append(members, toAccount(&up.Message.NewChatMembers[i]))
	}
	return d.facade.HandleMembersJoined(ctx, toInbound(up.Message), members)
}

func (d *Dispatcher) handleLeftMember(ctx context.Context, up tgbotapi.Update) error {
	left := up.Message.LeftChatMember
	// the bot's own departure arrives as my_chat_member
	if left.ID == d.bot.Self().ID {
		return nil
	}
	return d.facade.HandleMemberLeft(ctx, up.Message.Chat.ID, toAccount(left))
}

func (d *Dispatcher) handleMyChatMember(ctx context.Context, up tgbotapi.Update) error {
	return d.facade.HandleChatMemberChange(ctx, toMemberChange(up.MyChatMember))
}
