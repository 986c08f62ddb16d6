package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/application"
	"telegram-exchange-assistant/internal/config"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/worker"
)

// RateLimiter is a per-key request budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const updateTimeout = 30 * time.Second

// Dispatcher routes inbound updates to the facade. Updates from polling and from the
// webhook share the same worker pool.
type Dispatcher struct {
	bot         *RealTelegramBotAdapter
	facade      *application.BotFacade
	translator  *i18n.Translator
	rateLimiter RateLimiter
	pool        *worker.Pool
	cfg         *config.BotConfig
	dev         bool
	log         *zerolog.Logger
}

func NewDispatcher(
	bot *RealTelegramBotAdapter,
	facade *application.BotFacade,
	translator *i18n.Translator,
	rateLimiter RateLimiter,
	pool *worker.Pool,
	cfg *config.BotConfig,
	dev bool,
	logger *zerolog.Logger,
) (*Dispatcher, error) {
	if bot == nil || facade == nil || translator == nil || pool == nil || cfg == nil {
		return nil, errors.New("dispatcher: missing dependency")
	}
	return &Dispatcher{
		bot:         bot,
		facade:      facade,
		translator:  translator,
		rateLimiter: rateLimiter,
		pool:        pool,
		cfg:         cfg,
		dev:         dev,
		log:         logger,
	}, nil
}

// Run starts the workers and, in polling mode, feeds them from getUpdates until ctx is
// done. In webhook mode updates arrive through Enqueue.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.pool.Start(ctx)
	defer d.pool.Stop()

	if d.cfg.Mode != "polling" {
		<-ctx.Done()
		return nil
	}

	if err := d.bot.DeleteWebhook(ctx); err != nil {
		d.log.Warn().Err(err).Msg("could not delete webhook before polling")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = AllowedUpdates
	updates := d.bot.bot.GetUpdatesChan(u)
	defer d.bot.bot.StopReceivingUpdates()

	d.log.Info().Int("workers", d.cfg.Workers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("telegram polling stopped")
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := d.pool.Submit(ctx, d.task(up)); err != nil && !errors.Is(err, context.Canceled) {
				d.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
			}
		}
	}
}

// Enqueue hands a webhook update to the workers without waiting.
func (d *Dispatcher) Enqueue(up tgbotapi.Update) error {
	return d.pool.TrySubmit(d.task(up))
}

func (d *Dispatcher) task(up tgbotapi.Update) worker.Task {
	return func(ctx context.Context) error {
		// failures are logged by instrument
		_ = d.HandleUpdate(ctx, up)
		return nil
	}
}

// HandleUpdate processes one update synchronously.
func (d *Dispatcher) HandleUpdate(ctx context.Context, up tgbotapi.Update) error {
	name, h := d.route(up)
	if h == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()
	return d.instrument(name, h)(ctx, up)
}

type updateHandler func(ctx context.Context, up tgbotapi.Update) error

func (d *Dispatcher) route(up tgbotapi.Update) (string, updateHandler) {
	switch {
	case up.CallbackQuery != nil:
		return "callback", d.handleCallback
	case up.MyChatMember != nil:
		return "my_chat_member", d.handleMyChatMember
	case up.Message == nil:
		return "", nil
	case up.Message.IsCommand():
		return "command", d.handleCommand
	case len(up.Message.NewChatMembers) > 0:
		return "new_chat_members", d.handleNewMembers
	case up.Message.LeftChatMember != nil:
		return "left_chat_member", d.handleLeftMember
	case up.Message.Text != "":
		return "message", d.handleText
	}
	return "", nil
}
