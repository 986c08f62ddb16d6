package adapter

import (
	"context"

	"telegram-exchange-assistant/internal/domain/model"
)

// AssistantAPI is the remote exchange assistant service.
type AssistantAPI interface {
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	UpdateExchangeRate(ctx context.Context, groupID int64, rates []model.CurrencyRateEntry) error

	SendPaymentAccount(ctx context.Context, info model.PaymentAccountInfo) error
	ReportOutOfStock(ctx context.Context, groupID int64, ref model.PaymentRef) error
	ConfirmPayment(ctx context.Context, groupID int64, ref model.PaymentRef) error
	UpdatePaymentAccountStatus(ctx context.Context, groupID int64, status model.PaymentAccountStatus) error

	GetFile(ctx context.Context, fileID, fileName string) ([]byte, error)
}
