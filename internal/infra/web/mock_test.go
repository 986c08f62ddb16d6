//go:build !integration

package web

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/usecase"
)

type stubQueue struct {
	mu  sync.Mutex
	got []tgbotapi.Update
	err error
}

func (q *stubQueue) Enqueue(up tgbotapi.Update) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.got = append(q.got, up)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type mockAccountUC struct {
	usecase.AccountUseCase // Embed interface for forward compatibility
	chatID                 int64
	text                   string
	msgID                  int
	err                    error
}

func (m *mockAccountUC) Broadcast(_ context.Context, chatID int64, text string) (int, error) {
	m.chatID, m.text = chatID, text
	return m.msgID, m.err
}

type mockRatesUC struct {
	usecase.ExchangeRateUseCase
	calls int
	sent  int
	err   error
}

func (m *mockRatesUC) BroadcastRequest(context.Context) (int, error) {
	m.calls++
	return m.sent, m.err
}

type mockPaymentsUC struct {
	usecase.PaymentAccountUseCase
	requested []model.PaymentAccountRequest
	hurried   []model.PaymentAccountRequest
	receipts  []model.ReceiptRequest
	msgID     int
	err       error
}

func (m *mockPaymentsUC) RequestPaymentAccount(_ context.Context, req model.PaymentAccountRequest) (int, error) {
	m.requested = append(m.requested, req)
	return m.msgID, m.err
}

func (m *mockPaymentsUC) HurryPaymentAccount(_ context.Context, req model.PaymentAccountRequest) (int, error) {
	m.hurried = append(m.hurried, req)
	return m.msgID, m.err
}

func (m *mockPaymentsUC) CheckReceipt(_ context.Context, req model.ReceiptRequest) (int, error) {
	m.receipts = append(m.receipts, req)
	return m.msgID, m.err
}

type fixture struct {
	queue    *stubQueue
	accounts *mockAccountUC
	rates    *mockRatesUC
	payments *mockPaymentsUC
	server   *Server
}

func newFixture(opts Options) *fixture {
	l := zerolog.Nop()
	f := &fixture{
		queue:    &stubQueue{},
		accounts: &mockAccountUC{msgID: 77},
		rates:    &mockRatesUC{sent: 3},
		payments: &mockPaymentsUC{msgID: 88},
	}
	f.server = NewServer(f.queue, f.accounts, f.rates, f.payments, opts, &l)
	return f
}
