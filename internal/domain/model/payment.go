package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"telegram-exchange-assistant/internal/domain"
)

// PaymentRef identifies the customer order a vendor group is asked about.
type PaymentRef struct {
	CustomerID int64
	OrderID    uuid.UUID
}

func NewPaymentRef(customerID int64, orderID string) (PaymentRef, error) {
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil || customerID == 0 {
		return PaymentRef{}, domain.ErrInvalidArgument
	}
	return PaymentRef{CustomerID: customerID, OrderID: id}, nil
}

// PaymentAccountRequest asks a vendor group for the account the customer should pay into.
type PaymentAccountRequest struct {
	OrderID          uuid.UUID       `json:"session_id"`
	CustomerID       int64           `json:"customer_id"`
	GroupID          int64           `json:"group_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentCurrency  string          `json:"payment_currency"`
	ExchangeCurrency string          `json:"exchange_currency"`
}

func (r PaymentAccountRequest) Validate() error {
	if r.OrderID == uuid.Nil || r.CustomerID == 0 || r.GroupID == 0 {
		return domain.ErrInvalidArgument
	}
	if strings.TrimSpace(r.PaymentCurrency) == "" || strings.TrimSpace(r.ExchangeCurrency) == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r PaymentAccountRequest) Ref() PaymentRef {
	return PaymentRef{CustomerID: r.CustomerID, OrderID: r.OrderID}
}

// ReceiptRequest forwards a customer's payment receipt to the vendor group.
type ReceiptRequest struct {
	OrderID    uuid.UUID `json:"session_id"`
	CustomerID int64     `json:"customer_id"`
	GroupID    int64     `json:"group_id"`
	FileID     string    `json:"file_id"`
	FileName   string    `json:"file_name"`
}

func (r ReceiptRequest) Validate() error {
	if r.OrderID == uuid.Nil || r.CustomerID == 0 || r.GroupID == 0 {
		return domain.ErrInvalidArgument
	}
	if strings.TrimSpace(r.FileID) == "" || strings.TrimSpace(r.FileName) == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r ReceiptRequest) Ref() PaymentRef {
	return PaymentRef{CustomerID: r.CustomerID, OrderID: r.OrderID}
}

// PaymentAccountInfo is the vendor's answer to a payment account prompt.
type PaymentAccountInfo struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  int64     `json:"customer_id"`
	GroupID     int64     `json:"group_id"`
	MessageID   int       `json:"message_id"`
	AccountInfo string    `json:"account_info"`
}

// PaymentAccountStatus is a vendor group's self-reported availability.
type PaymentAccountStatus string

const (
	PaymentAccountAvailable   PaymentAccountStatus = "available"
	PaymentAccountUnavailable PaymentAccountStatus = "unavailable"
)

func ParsePaymentAccountStatus(s string) (PaymentAccountStatus, error) {
	switch PaymentAccountStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentAccountAvailable:
		return PaymentAccountAvailable, nil
	case PaymentAccountUnavailable:
		return PaymentAccountUnavailable, nil
	}
	return "", domain.ErrInvalidArgument
}
