package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/repository"
	"telegram-exchange-assistant/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var _ repository.CurrencyCatalog = (*currencyCatalogCache)(nil)

// currencyCatalogCache is a read-through cache in front of the assistant's currency list.
type currencyCatalogCache struct {
	inner  repository.CurrencyCatalog
	cache  Client
	key    string
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCurrencyCatalogCache(inner repository.CurrencyCatalog, cache Client, appName string, ttl time.Duration, logger *zerolog.Logger) repository.CurrencyCatalog {
	return &currencyCatalogCache{
		inner:  inner,
		cache:  cache,
		key:    appName + ":currencies:all",
		ttl:    ttl,
		logger: logger,
	}
}

func (d *currencyCatalogCache) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	val, err := d.cache.Get(ctx, d.key)
	switch {
	case err == nil:
		var currencies []model.Currency
		if json.Unmarshal([]byte(val), &currencies) == nil {
			metrics.IncCatalogCache("hit")
			return currencies, nil
		}
	case !errors.Is(err, redis.Nil):
		// cache trouble must not block rate submissions
		metrics.IncCatalogCache("error")
		d.logger.Warn().Err(err).Msg("currency cache read failed")
	}

	metrics.IncCatalogCache("miss")
	currencies, err := d.inner.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(currencies); err == nil {
		if err := d.cache.Set(ctx, d.key, data, d.ttl); err != nil {
			d.logger.Warn().Err(err).Msg("currency cache write failed")
		}
	}
	return currencies, nil
}
