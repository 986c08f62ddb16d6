package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/infra/logging"
)

type cbHandler func(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error

// cbRoutes maps the action word of the callback data to its handler.
func (d *Dispatcher) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		model.CallbackExchangeRate: d.exchangeRateCBRoute,
		model.CallbackProvidePA:    d.providePaymentAccountCBRoute,
		model.CallbackOutOfStock:   d.outOfStockCBRoute,
		model.CallbackConfirmPay:   d.confirmPayCBRoute,
		model.CallbackPAStatus:     d.paymentAccountStatusCBRoute,
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, up tgbotapi.Update) error {
	query := up.CallbackQuery
	if query.Message == nil || query.Message.Chat == nil || query.From == nil {
		d.answer(ctx, query, d.translator.T("common.button_expired"))
		return fmt.Errorf("%w: callback without message", domain.ErrUnknownCallback)
	}

	action, args := model.ParseCallbackData(query.Data)
	fn, ok := d.cbRoutes()[action]
	if !ok {
		d.answer(ctx, query, d.translator.T("common.button_expired"))
		return fmt.Errorf("%w: %q", domain.ErrUnknownCallback, query.Data)
	}
	if !d.allow(ctx, query.Message.Chat.ID, "cb:"+action) {
		d.answer(ctx, query, d.translator.T("common.rate_limited"))
		return nil
	}

	err := fn(ctx, query, args)
	if errors.Is(err, domain.ErrInvalidArgument) {
		d.answer(ctx, query, d.translator.T("common.button_expired"))
		return fmt.Errorf("%w: %q: %w", domain.ErrUnknownCallback, query.Data, err)
	}
	d.answer(ctx, query, "")
	return err
}

func (d *Dispatcher) answer(ctx context.Context, query *tgbotapi.CallbackQuery, text string) {
	if err := d.bot.AnswerCallback(ctx, query.ID, text); err != nil {
		logging.With(ctx, d.log).Warn().Err(err).Msg("answer callback failed")
	}
}

func (d *Dispatcher) exchangeRateCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 || args[0] != model.ExchangeRateProvideArg {
		return domain.ErrInvalidArgument
	}
	return d.facade.RatesUC.RequestRates(ctx, query.Message.Chat.ID)
}

func (d *Dispatcher) providePaymentAccountCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error {
	ref, err := model.PaymentRefFromArgs(args)
	if err != nil {
		return err
	}
	return d.facade.PaymentsUC.ProvidePaymentAccount(ctx, query.Message.Chat.ID, ref)
}

func (d *Dispatcher) outOfStockCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error {
	ref, err := model.PaymentRefFromArgs(args)
	if err != nil {
		return err
	}
	return d.facade.PaymentsUC.ReportOutOfStock(ctx, query.Message.Chat.ID, query.Message.MessageID, toAccount(query.From), ref)
}

func (d *Dispatcher) confirmPayCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error {
	ref, err := model.PaymentRefFromArgs(args)
	if err != nil {
		return err
	}
	return d.facade.PaymentsUC.ConfirmPay(ctx, query.Message.Chat.ID, query.Message.MessageID, toAccount(query.From), ref)
}

func (d *Dispatcher) paymentAccountStatusCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 {
		return domain.ErrInvalidArgument
	}
	status, err := model.ParsePaymentAccountStatus(args[0])
	if err != nil {
		return err
	}
	return d.facade.PaymentsUC.UpdateStatus(ctx, query.Message.Chat.ID, query.Message.MessageID, toAccount(query.From), status)
}
