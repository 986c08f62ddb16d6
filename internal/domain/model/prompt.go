package model

import (
	"strconv"
	"time"

	"telegram-exchange-assistant/internal/domain"
)

// PromptKind says which flow owns a pending prompt.
type PromptKind string

const (
	PromptExchangeRate       PromptKind = "exchange_rate"
	PromptPaymentAccountInfo PromptKind = "payment_account_info"
)

func (k PromptKind) Valid() bool {
	return k == PromptExchangeRate || k == PromptPaymentAccountInfo
}

// Payload keys used by the payment account flow.
const (
	PayloadCustomerID = "customer_id"
	PayloadOrderID    = "order_id"
)

// PendingPrompt is a bot message that is waiting for a reply in a conversation.
// At most one is live per (ConversationID, Kind).
type PendingPrompt struct {
	ConversationID  int64             `json:"conversation_id"`
	PromptMessageID int               `json:"prompt_message_id"`
	Kind            PromptKind        `json:"kind"`
	Payload         map[string]string `json:"payload,omitempty"`
	ExpiresAt       time.Time         `json:"expires_at"`
}

func NewPendingPrompt(conversationID int64, kind PromptKind, promptMessageID int, payload map[string]string, expiresAt time.Time) (*PendingPrompt, error) {
	if !kind.Valid() || promptMessageID == 0 || expiresAt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	var cp map[string]string
	if len(payload) > 0 {
		cp = make(map[string]string, len(payload))
		for k, v := range payload {
			cp[k] = v
		}
	}
	return &PendingPrompt{
		ConversationID:  conversationID,
		PromptMessageID: promptMessageID,
		Kind:            kind,
		Payload:         cp,
		ExpiresAt:       expiresAt,
	}, nil
}

// Expired reports whether the prompt is no longer valid at now.
func (p *PendingPrompt) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Matches reports whether replyTo targets this prompt's message.
func (p *PendingPrompt) Matches(replyTo int) bool {
	return replyTo != 0 && p.PromptMessageID == replyTo
}

// PaymentRef extracts the order reference stored by the payment account flow.
func (p *PendingPrompt) PaymentRef() (PaymentRef, error) {
	if p.Payload == nil {
		return PaymentRef{}, domain.ErrInvalidArgument
	}
	customerID, err := strconv.ParseInt(p.Payload[PayloadCustomerID], 10, 64)
	if err != nil {
		return PaymentRef{}, domain.ErrInvalidArgument
	}
	return NewPaymentRef(customerID, p.Payload[PayloadOrderID])
}
