package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one entry of the assistant's currency catalog.
type Currency struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Description string  `json:"description,omitempty"`
	Sequence    float64 `json:"sequence,omitempty"`
	ParentID    string  `json:"parent_id,omitempty"`
}

// Normalize upper-cases the symbol the way the catalog stores it.
func (c Currency) Normalize() Currency {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	return c
}

// CurrencyRateEntry is one currency quote of a vendor submission. Null rates mean the
// vendor did not quote that currency.
type CurrencyRateEntry struct {
	CurrencyID string              `json:"currency_id"`
	Symbol     string              `json:"-"`
	BuyRate    decimal.NullDecimal `json:"buy_rate"`
	SellRate   decimal.NullDecimal `json:"sell_rate"`
}

// MarshalJSON writes rates as JSON numbers (or null) with the exact decimal digits.
func (e CurrencyRateEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CurrencyID string          `json:"currency_id"`
		BuyRate    json.RawMessage `json:"buy_rate"`
		SellRate   json.RawMessage `json:"sell_rate"`
	}{
		CurrencyID: e.CurrencyID,
		BuyRate:    rateNumber(e.BuyRate),
		SellRate:   rateNumber(e.SellRate),
	})
}

func rateNumber(d decimal.NullDecimal) json.RawMessage {
	if !d.Valid {
		return json.RawMessage("null")
	}
	return json.RawMessage(d.Decimal.String())
}

func (e CurrencyRateEntry) Quoted() bool {
	return e.BuyRate.Valid || e.SellRate.Valid
}

// ParseResult is the outcome of parsing one submission. A non-empty Rejected list
// means nothing from Accepted may be forwarded.
type ParseResult struct {
	Accepted []CurrencyRateEntry
	Rejected []string
}

func (r ParseResult) OK() bool { return len(r.Rejected) == 0 }
