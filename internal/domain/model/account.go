package model

import (
	"strconv"
	"strings"
	"time"

	"telegram-exchange-assistant/internal/domain"
)

// BotType tells which side of the exchange a group serves.
type BotType string

const (
	BotTypeCustomer BotType = "customer"
	BotTypeVendors  BotType = "vendors"
)

func ParseBotType(s string) (BotType, error) {
	switch BotType(strings.ToLower(strings.TrimSpace(s))) {
	case BotTypeCustomer:
		return BotTypeCustomer, nil
	case BotTypeVendors, "":
		return BotTypeVendors, nil
	}
	return "", domain.ErrInvalidArgument
}

// TelegramAccount is a Telegram user seen by the bot.
type TelegramAccount struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	IsBot        bool      `json:"is_bot"`
	IsPremium    bool      `json:"is_premium"`
	Description  string    `json:"description,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a TelegramAccount) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// DisplayName is the @username when set, else the full name.
func (a TelegramAccount) DisplayName() string {
	if a.Username != "" {
		return "@" + a.Username
	}
	if name := a.FullName(); name != "" {
		return name
	}
	return strconv.FormatInt(a.ID, 10)
}

// Link is the public t.me link when the account has a username.
func (a TelegramAccount) Link() string {
	if a.Username == "" {
		return ""
	}
	return "https://t.me/" + a.Username
}

// ChatGroup is a Telegram group the bot has been added to.
type ChatGroup struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Type            string           `json:"type"`
	InGroup         bool             `json:"in_group"`
	BotType         BotType          `json:"bot_type"`
	Description     string           `json:"description,omitempty"`
	CustomerService *TelegramAccount `json:"customer_service,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsGroupChat reports whether a Telegram chat type is a group the bot may serve.
func IsGroupChat(chatType string) bool {
	return chatType == "group" || chatType == "supergroup"
}
