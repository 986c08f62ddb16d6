//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/domain/ports/repository"
	"telegram-exchange-assistant/internal/infra/i18n"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---- Prompt store ----

type memPromptRepo struct {
	mu      sync.Mutex
	prompts map[string]model.PendingPrompt
	ttls    map[string]time.Duration
	Err     error
}

var _ repository.PromptRepository = (*memPromptRepo)(nil)

func newMemPromptRepo() *memPromptRepo {
	return &memPromptRepo{prompts: map[string]model.PendingPrompt{}, ttls: map[string]time.Duration{}}
}

func promptKey(id int64, kind model.PromptKind) string { return fmt.Sprintf("%s:%d", kind, id) }

func (r *memPromptRepo) Save(ctx context.Context, p *model.PendingPrompt, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, r.Err)
	}
	r.prompts[promptKey(p.ConversationID, p.Kind)] = *p
	r.ttls[promptKey(p.ConversationID, p.Kind)] = ttl
	return nil
}

func (r *memPromptRepo) Find(ctx context.Context, id int64, kind model.PromptKind) (*model.PendingPrompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, r.Err)
	}
	p, ok := r.prompts[promptKey(id, kind)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPromptRepo) Delete(ctx context.Context, id int64, kind model.PromptKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, r.Err)
	}
	delete(r.prompts, promptKey(id, kind))
	return nil
}

func (r *memPromptRepo) has(id int64, kind model.PromptKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.prompts[promptKey(id, kind)]
	return ok
}

// ---- Mock TelegramBotAdapter ----

type editCall struct {
	ChatID    int64
	MessageID int
	Text      string
}

type MockTelegramBot struct {
	mu      sync.Mutex
	nextID  int
	Sent    []adapter.SendMessageParams
	Photos  []adapter.SendPhotoParams
	Edits   []editCall
	Cleared []editCall
	Left    []int64

	SendMessageFunc func(ctx context.Context, params adapter.SendMessageParams) (int, error)
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, params)
	return 1000 + m.nextID, nil
}

func (m *MockTelegramBot) SendPhoto(ctx context.Context, params adapter.SendPhotoParams) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Photos = append(m.Photos, params)
	return 1000 + m.nextID, nil
}

func (m *MockTelegramBot) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, editCall{chatID, messageID, text})
	return nil
}

func (m *MockTelegramBot) ClearButtons(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, editCall{ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *MockTelegramBot) LeaveChat(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Left = append(m.Left, chatID)
	return nil
}

func (m *MockTelegramBot) last() adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return adapter.SendMessageParams{}
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *MockTelegramBot) lastID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return 1000 + m.nextID
}

// ---- Fake assistant API ----

type fakeAssistant struct {
	mu         sync.Mutex
	Currencies []model.Currency
	Err        error

	RateCalls  [][]model.CurrencyRateEntry
	RateGroups []int64
	Accounts   []model.PaymentAccountInfo
	OutOfStock []model.PaymentRef
	Confirmed  []model.PaymentRef
	Statuses   []model.PaymentAccountStatus
	Files      map[string][]byte
	ListCalls  int
}

var _ adapter.AssistantAPI = (*fakeAssistant)(nil)

func (f *fakeAssistant) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	return f.Currencies, nil
}

func (f *fakeAssistant) UpdateExchangeRate(ctx context.Context, groupID int64, rates []model.CurrencyRateEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.RateGroups = append(f.RateGroups, groupID)
	f.RateCalls = append(f.RateCalls, rates)
	return nil
}

func (f *fakeAssistant) SendPaymentAccount(ctx context.Context, info model.PaymentAccountInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Accounts = append(f.Accounts, info)
	return nil
}

func (f *fakeAssistant) ReportOutOfStock(ctx context.Context, groupID int64, ref model.PaymentRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.OutOfStock = append(f.OutOfStock, ref)
	return nil
}

func (f *fakeAssistant) ConfirmPayment(ctx context.Context, groupID int64, ref model.PaymentRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Confirmed = append(f.Confirmed, ref)
	return nil
}

func (f *fakeAssistant) UpdatePaymentAccountStatus(ctx context.Context, groupID int64, status model.PaymentAccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Statuses = append(f.Statuses, status)
	return nil
}

func (f *fakeAssistant) GetFile(ctx context.Context, fileID, fileName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.Files[fileID+"/"+fileName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

// ---- In-memory account store ----

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]model.TelegramAccount
	Err      error
}

var _ repository.AccountRepository = (*memAccountRepo)(nil)

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[int64]model.TelegramAccount{}}
}

func (r *memAccountRepo) Save(ctx context.Context, qx repository.Tx, a *model.TelegramAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *memAccountRepo) FindByID(ctx context.Context, qx repository.Tx, id int64) (*model.TelegramAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

type memGroupRepo struct {
	mu      sync.Mutex
	groups  map[int64]model.ChatGroup
	members map[int64]map[int64]model.TelegramAccount
}

var _ repository.ChatGroupRepository = (*memGroupRepo)(nil)

func newMemGroupRepo(groups ...model.ChatGroup) *memGroupRepo {
	r := &memGroupRepo{groups: map[int64]model.ChatGroup{}, members: map[int64]map[int64]model.TelegramAccount{}}
	for _, g := range groups {
		r.groups[g.ID] = g
	}
	return r
}

func (r *memGroupRepo) Upsert(ctx context.Context, qx repository.Tx, g *model.ChatGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	if old, ok := r.groups[g.ID]; ok && old.CustomerService != nil {
		cp.CustomerService = old.CustomerService
	}
	r.groups[g.ID] = cp
	return nil
}

func (r *memGroupRepo) FindByID(ctx context.Context, qx repository.Tx, id int64) (*model.ChatGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (r *memGroupRepo) ListByBotType(ctx context.Context, qx repository.Tx, bt model.BotType, inGroupOnly bool) ([]*model.ChatGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ChatGroup
	for _, g := range r.groups {
		if g.BotType != bt || (inGroupOnly && !g.InGroup) {
			continue
		}
		g := g
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memGroupRepo) SaveMember(ctx context.Context, qx repository.Tx, chatID int64, a *model.TelegramAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[chatID] == nil {
		r.members[chatID] = map[int64]model.TelegramAccount{}
	}
	r.members[chatID][a.ID] = *a
	return nil
}

func (r *memGroupRepo) DeleteMember(ctx context.Context, qx repository.Tx, chatID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[chatID], userID)
	return nil
}

func (r *memGroupRepo) ListMembers(ctx context.Context, qx repository.Tx, chatID int64) ([]*model.TelegramAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TelegramAccount
	for _, a := range r.members[chatID] {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memGroupRepo) ListAccountGroups(ctx context.Context, qx repository.Tx, userID int64) ([]*model.ChatGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ChatGroup
	for chatID, ms := range r.members {
		if _, ok := ms[userID]; ok {
			g := r.groups[chatID]
			out = append(out, &g)
		}
	}
	return out, nil
}
