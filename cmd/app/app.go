package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-exchange-assistant/internal/application"
	"telegram-exchange-assistant/internal/config"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/infra/adapters/assistant"
	tele "telegram-exchange-assistant/internal/infra/adapters/telegram"
	pg "telegram-exchange-assistant/internal/infra/db/postgres"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/metrics"
	red "telegram-exchange-assistant/internal/infra/redis"
	"telegram-exchange-assistant/internal/infra/scheduler"
	"telegram-exchange-assistant/internal/infra/web"
	"telegram-exchange-assistant/internal/infra/worker"
	"telegram-exchange-assistant/internal/usecase"
)

type closer interface {
	Close() error
}

// App owns every long-lived connection and component. It is built once by New, driven by
// Run and torn down by Close.
type App struct {
	cfg        *config.Config
	log        *zerolog.Logger
	botType    model.BotType
	pool       *pgxpool.Pool
	redis      closer
	bot        *tele.RealTelegramBotAdapter
	translator *i18n.Translator
	dispatcher *tele.Dispatcher
	server     *web.Server
	scheduler  *scheduler.Scheduler
}

// New opens the stores, wires use cases and registers the Telegram handlers.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (app *App, err error) {
	botType, err := model.ParseBotType(cfg.Bot.BotType)
	if err != nil {
		return nil, fmt.Errorf("bot type: %w", err)
	}
	metrics.SetBuildInfo(cfg.App.Version, cfg.App.Commit, string(botType))
	metrics.MustRegister()

	a := &App{cfg: cfg, log: logger, botType: botType}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// ---- Postgres ----
	if a.pool, err = pg.NewPgxPool(ctx, cfg.Database); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.redis = redisClient

	// ---- Repositories and adapters ----
	accountRepo := pg.NewAccountRepo(a.pool)
	groupRepo := pg.NewChatGroupRepo(a.pool)
	promptRepo := red.NewPromptRepo(redisClient, cfg.App.Name)
	rateLimiter := red.NewRateLimiter(redisClient, cfg.App.Name)

	assistantClient := assistant.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey, cfg.Assistant.Timeout, logger)
	catalog := red.NewCurrencyCatalogCache(assistantClient, redisClient, cfg.App.Name, cfg.Redis.TTL, logger)

	if a.translator, err = i18n.NewTranslator(i18n.LocalesFS, cfg.App.Language); err != nil {
		return nil, fmt.Errorf("i18n: %w", err)
	}
	if a.bot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, logger); err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	// ---- Use cases ----
	minRate, err := cfg.ExchangeRate.MinRateDecimal()
	if err != nil {
		return nil, err
	}
	parser := usecase.NewRateParser(usecase.RateRules{MinRate: minRate, MaxDecimalPlaces: cfg.ExchangeRate.MaxDecimalPlaces})
	correlator := usecase.NewCorrelator(promptRepo, logger)

	ratesUC := usecase.NewExchangeRateUseCase(correlator, parser, catalog, assistantClient, groupRepo, a.bot, a.translator,
		usecase.FlowPolicy{TTL: cfg.Flows.ExchangeRate.TTL, ClearOnSuccess: cfg.Flows.ExchangeRate.ShouldClear(false)}, logger)
	paymentsUC := usecase.NewPaymentAccountUseCase(correlator, assistantClient, a.bot, a.translator,
		usecase.FlowPolicy{TTL: cfg.Flows.PaymentAccount.TTL, ClearOnSuccess: cfg.Flows.PaymentAccount.ShouldClear(true)},
		cfg.Runtime.Dev, logger)
	accountsUC := usecase.NewAccountUseCase(accountRepo, groupRepo, a.bot, a.translator, botType, logger)

	// ---- Telegram ----
	facade := application.NewBotFacade(ratesUC, paymentsUC, accountsUC, botType, logger)
	workers := worker.NewPool(cfg.Bot.Workers, cfg.Bot.Workers*16, logger)
	if a.dispatcher, err = tele.NewDispatcher(a.bot, facade, a.translator, rateLimiter, workers, &cfg.Bot, cfg.Runtime.Dev, logger); err != nil {
		return nil, err
	}

	// ---- HTTP ----
	a.server = web.NewServer(a.dispatcher, accountsUC, ratesUC, paymentsUC, web.Options{
		WebhookPath:   cfg.Bot.WebhookPath,
		WebhookSecret: cfg.Bot.WebhookSecret,
		APIKey:        cfg.HTTP.APIKey,
		JWTSecret:     cfg.HTTP.JWTSecret,
		Checks:        map[string]web.Pinger{"postgres": a.pool, "redis": redisClient},
	}, logger)

	if cfg.Scheduler.ExchangeRateInterval > 0 {
		a.scheduler = scheduler.NewScheduler(cfg.Scheduler.ExchangeRateInterval, ratesUC, red.NewLocker(redisClient, cfg.App.Name), logger)
	}
	return a, nil
}

// Run registers bot commands (and the webhook in webhook mode), then serves until ctx is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.bot.SetupCommands(setupCtx, a.translator); err != nil {
		a.log.Warn().Err(err).Msg("bot commands not registered")
	}
	if a.cfg.Bot.Mode == "webhook" {
		hookURL := strings.TrimRight(a.cfg.App.BaseURL, "/") + a.cfg.Bot.WebhookPath
		if err := a.bot.SetupWebhook(setupCtx, hookURL, a.cfg.Bot.WebhookSecret); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		a.log.Info().Str("url", hookURL).Msg("webhook registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.dispatcher.Run(gctx) })
	g.Go(func() error { return a.server.ListenAndServe(gctx, fmt.Sprintf(":%d", a.cfg.HTTP.Port)) })
	g.Go(func() error {
		pg.ReportPoolStats(gctx, a.pool, 15*time.Second, a.log)
		return nil
	})
	if a.scheduler != nil {
		g.Go(func() error { return a.scheduler.Run(gctx) })
	}

	a.log.Info().
		Str("bot", a.bot.Self().UserName).
		Str("mode", a.cfg.Bot.Mode).
		Str("bot_type", string(a.botType)).
		Msg("exchange assistant started")
	return g.Wait()
}

// Close releases the store connections. It is safe on a partially built App.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close redis")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
