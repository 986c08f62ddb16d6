package repository

import (
	"context"

	"telegram-exchange-assistant/internal/domain/model"
)

type Tx interface{}

var NoTX interface{}

// AccountRepository stores Telegram users seen by the bot.
type AccountRepository interface {
	Save(ctx context.Context, qx Tx, account *model.TelegramAccount) error
	FindByID(ctx context.Context, qx Tx, id int64) (*model.TelegramAccount, error)
}

// ChatGroupRepository stores the groups the bot is in and their members.
type ChatGroupRepository interface {
	// Upsert keeps an existing customer service contact; it is only set once.
	Upsert(ctx context.Context, qx Tx, group *model.ChatGroup) error
	FindByID(ctx context.Context, qx Tx, id int64) (*model.ChatGroup, error)
	ListByBotType(ctx context.Context, qx Tx, botType model.BotType, inGroupOnly bool) ([]*model.ChatGroup, error)

	SaveMember(ctx context.Context, qx Tx, chatID int64, account *model.TelegramAccount) error
	DeleteMember(ctx context.Context, qx Tx, chatID, userID int64) error
	ListMembers(ctx context.Context, qx Tx, chatID int64) ([]*model.TelegramAccount, error)
	ListAccountGroups(ctx context.Context, qx Tx, userID int64) ([]*model.ChatGroup, error)
}
