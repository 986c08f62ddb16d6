package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-exchange-assistant/internal/domain/model"
)

func toAccount(u *tgbotapi.User) model.TelegramAccount {
	if u == nil {
		return model.TelegramAccount{}
	}
	return model.TelegramAccount{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
		IsBot:        u.IsBot,
	}
}

func toInbound(m *tgbotapi.Message) model.InboundMessage {
	in := model.InboundMessage{
		MessageID: m.MessageID,
		Text:      m.Text,
		From:      toAccount(m.From),
	}
	if m.Chat != nil {
		in.ChatID = m.Chat.ID
		in.ChatTitle = m.Chat.Title
		in.ChatType = m.Chat.Type
	}
	if m.ReplyToMessage != nil {
		in.ReplyToMessageID = m.ReplyToMessage.MessageID
	}
	return in
}

func toMemberChange(c *tgbotapi.ChatMemberUpdated) model.ChatMemberChange {
	return model.ChatMemberChange{
		ChatID:      c.Chat.ID,
		ChatTitle:   c.Chat.Title,
		ChatType:    c.Chat.Type,
		By:          toAccount(&c.From),
		OldStatus:   model.MemberStatus(c.OldChatMember.Status),
		NewStatus:   model.MemberStatus(c.NewChatMember.Status),
		OldIsMember: c.OldChatMember.IsMember,
		NewIsMember: c.NewChatMember.IsMember,
	}
}
