package repository

import (
	"context"

	"telegram-exchange-assistant/internal/domain/model"
)

// CurrencyCatalog lists the currencies vendors may quote.
type CurrencyCatalog interface {
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
}
