// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Parse modes understood by the Bot API.
const (
	ParseModeNone       = ""
	ParseModeHTML       = "HTML"
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
)

type SendMessageParams struct {
	ChatID           int64
	Text             string
	ParseMode        string
	ReplyToMessageID int
	ForceReply       bool
	Buttons          [][]InlineButton
}

type SendPhotoParams struct {
	ChatID    int64
	FileName  string
	Data      []byte
	Caption   string
	ParseMode string
	Buttons   [][]InlineButton
}

// TelegramBotAdapter is the outbound messaging port. Send methods return the id of the
// message Telegram created.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
	SendPhoto(ctx context.Context, params SendPhotoParams) (int, error)
	// EditMessage replaces the text and drops any inline keyboard.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	// ClearButtons drops the inline keyboard and keeps the content (works for photos).
	ClearButtons(ctx context.Context, chatID int64, messageID int) error
	LeaveChat(ctx context.Context, chatID int64) error
}
