package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/usecase"
)

// UpdateQueue hands webhook updates to the bot's worker pool without blocking the request.
type UpdateQueue interface {
	Enqueue(up tgbotapi.Update) error
}

// Pinger is a dependency probed by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	WebhookPath   string
	WebhookSecret string
	APIKey        string
	JWTSecret     string
	// Checks are probed by GET /healthcheck, keyed by name.
	Checks map[string]Pinger
}

type Server struct {
	updates  UpdateQueue
	accounts usecase.AccountUseCase
	rates    usecase.ExchangeRateUseCase
	payments usecase.PaymentAccountUseCase
	auth     *Authenticator
	opts     Options
	log      *zerolog.Logger
}

func NewServer(
	updates UpdateQueue,
	accounts usecase.AccountUseCase,
	rates usecase.ExchangeRateUseCase,
	payments usecase.PaymentAccountUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	l := logging.Component(logger, "web")
	if opts.WebhookPath == "" {
		opts.WebhookPath = "/webhooks/v1/telegram"
	}
	return &Server{
		updates:  updates,
		accounts: accounts,
		rates:    rates,
		payments: payments,
		auth:     NewAuthenticator(opts.APIKey, opts.JWTSecret),
		opts:     opts,
		log:      l,
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID, RequestLog(s.log), Recover(s.log), middleware.StripSlashes)

	r.Get("/healthcheck", s.handleHealthcheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post(s.opts.WebhookPath, s.handleWebhook)

	r.Route("/apis/v1/telegram", func(r chi.Router) {
		r.Use(s.requireAuth, middleware.Timeout(30*time.Second))
		r.Post("/broadcast", s.handleBroadcast)
		r.Post("/exchange_rate_msg", s.handleExchangeRateMsg)
		r.Post("/payment_account", s.handlePaymentAccount(s.payments.RequestPaymentAccount))
		r.Post("/hurry_payment_account", s.handlePaymentAccount(s.payments.HurryPaymentAccount))
		r.Post("/check_receipt", s.handleCheckReceipt)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains for up to 10s.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("http server stopped")
	return nil
}
