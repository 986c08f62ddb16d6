package usecase

import (
	"strings"

	"github.com/shopspring/decimal"

	"telegram-exchange-assistant/internal/domain/model"
)

// RateRules bounds parsed rates. The zero value accepts any decimal.
type RateRules struct {
	MinRate          decimal.NullDecimal
	MaxDecimalPlaces int32 // 0 means unbounded
}

func (r RateRules) allows(d decimal.Decimal) bool {
	if r.MinRate.Valid && d.LessThan(r.MinRate.Decimal) {
		return false
	}
	if r.MaxDecimalPlaces > 0 && -d.Exponent() > r.MaxDecimalPlaces {
		// trailing zeros do not count
		if !d.Equal(d.Truncate(r.MaxDecimalPlaces)) {
			return false
		}
	}
	return true
}

// RateParser turns a vendor's free-text exchange rate submission into quotes.
//
// Format: `{currency}:{buy rate}|{sell rate}`, several entries separated by commas or,
// when there is no comma, by new lines. A single rate applies to both sides.
type RateParser struct {
	rules RateRules
}

func NewRateParser(rules RateRules) *RateParser {
	return &RateParser{rules: rules}
}

// Parse is pure: the same text and catalog always give the same result.
func (p *RateParser) Parse(text string, known []model.Currency) model.ParseResult {
	bySymbol := make(map[string]model.Currency, len(known))
	for _, c := range known {
		c = c.Normalize()
		if c.Symbol == "" {
			continue
		}
		if _, dup := bySymbol[c.Symbol]; !dup {
			bySymbol[c.Symbol] = c
		}
	}

	result := model.ParseResult{Accepted: []model.CurrencyRateEntry{}, Rejected: []string{}}
	position := map[string]int{}

	// Blank segments fail the colon split and are rejected like any other malformed one.
	for _, segment := range splitSegments(text) {
		entry, known, ok := p.parseSegment(segment, bySymbol)
		if !known {
			continue
		}
		if !ok {
			result.Rejected = append(result.Rejected, segment)
			continue
		}
		// A repeated currency replaces the earlier quote in place.
		if i, seen := position[entry.Symbol]; seen {
			result.Accepted[i] = entry
			continue
		}
		position[entry.Symbol] = len(result.Accepted)
		result.Accepted = append(result.Accepted, entry)
	}

	for _, c := range known {
		c = c.Normalize()
		if c.Symbol == "" {
			continue
		}
		if _, seen := position[c.Symbol]; seen {
			continue
		}
		position[c.Symbol] = len(result.Accepted)
		result.Accepted = append(result.Accepted, model.CurrencyRateEntry{CurrencyID: c.ID, Symbol: c.Symbol})
	}
	return result
}

func splitSegments(text string) []string {
	switch {
	case strings.Contains(text, ","):
		return strings.Split(text, ",")
	case strings.Contains(text, "\n"):
		return strings.Split(text, "\n")
	default:
		return []string{text}
	}
}

// parseSegment returns known=false for well-formed segments naming a currency outside the
// catalog; those are skipped rather than rejected.
func (p *RateParser) parseSegment(segment string, bySymbol map[string]model.Currency) (entry model.CurrencyRateEntry, known, ok bool) {
	parts := strings.Split(segment, ":")
	if len(parts) != 2 {
		return entry, true, false
	}
	symbol := strings.ToUpper(strings.TrimSpace(parts[0]))
	currency, found := bySymbol[symbol]
	if symbol != "" && !found {
		return entry, false, false
	}

	rates := strings.Split(parts[1], "|")
	var buyText, sellText string
	switch len(rates) {
	case 1:
		buyText, sellText = rates[0], rates[0]
	case 2:
		buyText, sellText = rates[0], rates[1]
	default:
		return entry, true, false
	}
	buyText, sellText = strings.TrimSpace(buyText), strings.TrimSpace(sellText)
	if symbol == "" || buyText == "" || sellText == "" {
		return entry, true, false
	}

	buy, err := decimal.NewFromString(buyText)
	if err != nil || !p.rules.allows(buy) {
		return entry, true, false
	}
	sell, err := decimal.NewFromString(sellText)
	if err != nil || !p.rules.allows(sell) {
		return entry, true, false
	}
	return model.CurrencyRateEntry{
		CurrencyID: currency.ID,
		Symbol:     currency.Symbol,
		BuyRate:    decimal.NewNullDecimal(buy),
		SellRate:   decimal.NewNullDecimal(sell),
	}, true, true
}
