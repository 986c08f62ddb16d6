//go:build !integration

package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/application"
	"telegram-exchange-assistant/internal/config"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/worker"
	"telegram-exchange-assistant/internal/usecase"
)

// fakeBotAPI records every Chattable it is given.
type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	raw      map[string]tgbotapi.Params
	nextID   int
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBotAPI() *fakeBotAPI {
	return &fakeBotAPI{raw: map[string]tgbotapi.Params{}, nextID: 500, updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[endpoint] = params
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBotAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeBotAPI) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeBotAPI) callbackAnswers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

// ---- use case fakes ----

type ratesUCMock struct {
	usecase.ExchangeRateUseCase
	mu        sync.Mutex
	requested []int64
	replies   []model.InboundMessage
}

func (m *ratesUCMock) RequestRates(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, chatID)
	return nil
}

func (m *ratesUCMock) HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, msg)
	return true, nil
}

type paymentsUCMock struct {
	usecase.PaymentAccountUseCase
	provided   []model.PaymentRef
	outOfStock []model.PaymentRef
	confirmed  []model.PaymentRef
	statuses   []model.PaymentAccountStatus
	asked      []int64
	by         []model.TelegramAccount
}

func (m *paymentsUCMock) ProvidePaymentAccount(ctx context.Context, chatID int64, ref model.PaymentRef) error {
	m.provided = append(m.provided, ref)
	return nil
}

func (m *paymentsUCMock) ReportOutOfStock(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error {
	m.outOfStock = append(m.outOfStock, ref)
	m.by = append(m.by, by)
	return nil
}

func (m *paymentsUCMock) ConfirmPay(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, ref model.PaymentRef) error {
	m.confirmed = append(m.confirmed, ref)
	return nil
}

func (m *paymentsUCMock) AskStatus(ctx context.Context, chatID int64) error {
	m.asked = append(m.asked, chatID)
	return nil
}

func (m *paymentsUCMock) UpdateStatus(ctx context.Context, chatID int64, messageID int, by model.TelegramAccount, status model.PaymentAccountStatus) error {
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *paymentsUCMock) HandleReply(ctx context.Context, msg model.InboundMessage) (bool, error) {
	return false, nil
}

type accountsUCMock struct {
	usecase.AccountUseCase
	setups  []model.TelegramAccount
	joined  []model.TelegramAccount
	left    []int64
	changes []model.ChatMemberChange
}

func (m *accountsUCMock) SetupAccountInfo(ctx context.Context, account model.TelegramAccount, group model.ChatGroup) error {
	m.setups = append(m.setups, account)
	return nil
}

func (m *accountsUCMock) MembersJoined(ctx context.Context, group model.ChatGroup, members []model.TelegramAccount) error {
	m.joined = append(m.joined, members...)
	return nil
}

func (m *accountsUCMock) MemberLeft(ctx context.Context, chatID int64, member model.TelegramAccount) error {
	m.left = append(m.left, member.ID)
	return nil
}

func (m *accountsUCMock) TrackChat(ctx context.Context, change model.ChatMemberChange) error {
	m.changes = append(m.changes, change)
	return nil
}

// stubLimiter allows the first n requests.
type stubLimiter struct {
	n     int
	calls int
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.calls <= s.n, nil
}

type fixture struct {
	api      *fakeBotAPI
	bot      *RealTelegramBotAdapter
	rates    *ratesUCMock
	payments *paymentsUCMock
	accounts *accountsUCMock
	d        *Dispatcher
}

func newFixture(dev bool, limiter RateLimiter) *fixture {
	logger := zerolog.Nop()
	api := newFakeBotAPI()
	bot := newRealTelegramBotAdapter(api, tgbotapi.User{ID: 999, IsBot: true, UserName: "rates_bot"}, &logger)
	rates, payments, accounts := &ratesUCMock{}, &paymentsUCMock{}, &accountsUCMock{}
	facade := application.NewBotFacade(rates, payments, accounts, model.BotTypeVendors, &logger)
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	cfg := &config.BotConfig{Mode: "polling", Workers: 2, RateLimit: 20, RateWindow: time.Minute}
	d, err := NewDispatcher(bot, facade, tr, limiter, worker.NewPool(2, 0, &logger), cfg, dev, &logger)
	if err != nil {
		panic(err)
	}
	return &fixture{api: api, bot: bot, rates: rates, payments: payments, accounts: accounts, d: d}
}

var groupChat = &tgbotapi.Chat{ID: -100, Type: "supergroup", Title: "PH vendors"}

func commandUpdate(chat *tgbotapi.Chat, text string) tgbotapi.Update {
	cmd := text
	for i, r := range text {
		if r == ' ' {
			cmd = text[:i]
			break
		}
	}
	return tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 7, UserName: "vendor"},
		Chat:      chat,
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7, UserName: "vendor"},
		Message: &tgbotapi.Message{MessageID: 42, Chat: groupChat},
		Data:    data,
	}}
}
