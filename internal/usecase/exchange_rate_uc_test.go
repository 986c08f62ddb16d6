//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/usecase"
)

type exchangeRateFixture struct {
	uc        usecase.ExchangeRateUseCase
	bot       *MockTelegramBot
	prompts   *memPromptRepo
	assistant *fakeAssistant
	clock     *fakeClock
}

func newExchangeRateFixture(clearOnSuccess bool, groups ...model.ChatGroup) *exchangeRateFixture {
	f := &exchangeRateFixture{
		bot:       &MockTelegramBot{},
		prompts:   newMemPromptRepo(),
		assistant: &fakeAssistant{Currencies: catalog},
		clock:     newFakeClock(),
	}
	correlator := usecase.NewCorrelator(f.prompts, newTestLogger()).WithClock(f.clock.Now)
	f.uc = usecase.NewExchangeRateUseCase(
		correlator,
		usecase.NewRateParser(usecase.RateRules{}),
		f.assistant,
		f.assistant,
		newMemGroupRepo(groups...),
		f.bot,
		newTestTranslator(),
		usecase.FlowPolicy{TTL: time.Hour, ClearOnSuccess: clearOnSuccess},
		newTestLogger(),
	)
	return f
}

const vendorChat int64 = -100500

func TestExchangeRateUseCase_RequestRates(t *testing.T) {
	ctx := context.Background()
	f := newExchangeRateFixture(false)

	require.NoError(t, f.uc.RequestRates(ctx, vendorChat))

	require.Len(t, f.bot.Sent, 1)
	sent := f.bot.Sent[0]
	assert.True(t, sent.ForceReply)
	assert.Equal(t, adapter.ParseModeMarkdownV2, sent.ParseMode)
	assert.Contains(t, sent.Text, `*\(in 1 hour\)*`)

	stored, err := f.prompts.Find(ctx, vendorChat, model.PromptExchangeRate)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, f.bot.lastID(), stored.PromptMessageID)
	assert.Equal(t, f.clock.Now().Add(time.Hour), stored.ExpiresAt)
}

func TestExchangeRateUseCase_HandleReply(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T, clearOnSuccess bool) (*exchangeRateFixture, int) {
		f := newExchangeRateFixture(clearOnSuccess)
		require.NoError(t, f.uc.RequestRates(ctx, vendorChat))
		return f, f.bot.lastID()
	}

	t.Run("valid reply is forwarded with null fill", func(t *testing.T) {
		f, promptID := start(t, false)
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{
			ChatID: vendorChat, MessageID: 77, ReplyToMessageID: promptID,
			Text: "USD:0.99|0.98,CAD:1.34|1.33",
		})
		require.NoError(t, err)
		assert.True(t, handled)

		require.Len(t, f.assistant.RateCalls, 1)
		assert.Equal(t, vendorChat, f.assistant.RateGroups[0])
		assert.Equal(t, []quote{{"USD", "0.99", "0.98"}, {"CAD", "1.34", "1.33"}, {"JPY", "", ""}}, quotes(f.assistant.RateCalls[0]))

		reply := f.bot.last()
		assert.Equal(t, "Thank you for your cooperation.", reply.Text)
		assert.Equal(t, 77, reply.ReplyToMessageID)
		assert.True(t, f.prompts.has(vendorChat, model.PromptExchangeRate), "prompt stays open by default")
	})

	t.Run("clear on success ends the prompt", func(t *testing.T) {
		f, promptID := start(t, true)
		_, err := f.uc.HandleReply(ctx, model.InboundMessage{ChatID: vendorChat, MessageID: 77, ReplyToMessageID: promptID, Text: "USD:1"})
		require.NoError(t, err)
		assert.False(t, f.prompts.has(vendorChat, model.PromptExchangeRate))
	})

	t.Run("malformed reply lists rejects and keeps the prompt", func(t *testing.T) {
		f, promptID := start(t, true)
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{
			ChatID: vendorChat, MessageID: 78, ReplyToMessageID: promptID, Text: "USD0.99|0.98",
		})
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Empty(t, f.assistant.RateCalls, "nothing is forwarded")

		reply := f.bot.last()
		assert.Contains(t, reply.Text, "Sorry, there are some incorrect formats:\n`USD0.99|0.98`")
		assert.Equal(t, adapter.ParseModeMarkdownV2, reply.ParseMode)
		assert.True(t, f.prompts.has(vendorChat, model.PromptExchangeRate))
	})

	t.Run("partially valid reply is all or nothing", func(t *testing.T) {
		f, promptID := start(t, false)
		_, err := f.uc.HandleReply(ctx, model.InboundMessage{
			ChatID: vendorChat, MessageID: 79, ReplyToMessageID: promptID, Text: "USD:1,CAD:x,JPY:2|",
		})
		require.NoError(t, err)
		assert.Empty(t, f.assistant.RateCalls)
		assert.Contains(t, f.bot.last().Text, "`CAD:x,JPY:2|`")
	})

	t.Run("reply to another message is ignored", func(t *testing.T) {
		f, promptID := start(t, false)
		sentBefore := len(f.bot.Sent)
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{ChatID: vendorChat, MessageID: 80, ReplyToMessageID: promptID + 1, Text: "USD:1"})
		require.NoError(t, err)
		assert.False(t, handled)
		assert.Len(t, f.bot.Sent, sentBefore)
	})

	t.Run("expired prompt is ignored", func(t *testing.T) {
		f, promptID := start(t, false)
		f.clock.Advance(time.Hour)
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{ChatID: vendorChat, MessageID: 81, ReplyToMessageID: promptID, Text: "USD:1"})
		require.NoError(t, err)
		assert.False(t, handled)
		assert.Empty(t, f.assistant.RateCalls)
	})

	t.Run("submission failure asks to retry and keeps the prompt", func(t *testing.T) {
		f, promptID := start(t, true)
		f.assistant.Err = domain.ErrUpstream
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{ChatID: vendorChat, MessageID: 82, ReplyToMessageID: promptID, Text: "USD:1"})
		assert.True(t, handled)
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Equal(t, `Sorry, something went wrong\. Please try again later\.`, f.bot.last().Text)
		assert.True(t, f.prompts.has(vendorChat, model.PromptExchangeRate))
	})

	t.Run("store failure asks to retry", func(t *testing.T) {
		f, promptID := start(t, false)
		f.prompts.Err = errors.New("redis down")
		handled, err := f.uc.HandleReply(ctx, model.InboundMessage{ChatID: vendorChat, MessageID: 83, ReplyToMessageID: promptID, Text: "USD:1"})
		assert.True(t, handled)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, `Sorry, something went wrong\. Please try again later\.`, f.bot.last().Text)
	})
}

func TestExchangeRateUseCase_BroadcastRequest(t *testing.T) {
	ctx := context.Background()
	groups := newMemGroupRepo(
		model.ChatGroup{ID: -1, Type: "group", InGroup: true, BotType: model.BotTypeVendors},
		model.ChatGroup{ID: -2, Type: "supergroup", InGroup: true, BotType: model.BotTypeVendors},
		model.ChatGroup{ID: -3, Type: "group", InGroup: false, BotType: model.BotTypeVendors},
		model.ChatGroup{ID: -4, Type: "group", InGroup: true, BotType: model.BotTypeCustomer},
	)
	recorder := &MockTelegramBot{}
	bot := &MockTelegramBot{SendMessageFunc: func(ctx context.Context, p adapter.SendMessageParams) (int, error) {
		if p.ChatID == -2 {
			return 0, errors.New("bot was kicked")
		}
		return recorder.SendMessage(ctx, p)
	}}
	assistant := &fakeAssistant{Currencies: catalog}
	uc := usecase.NewExchangeRateUseCase(
		usecase.NewCorrelator(newMemPromptRepo(), newTestLogger()),
		usecase.NewRateParser(usecase.RateRules{}),
		assistant, assistant, groups, bot, newTestTranslator(),
		usecase.FlowPolicy{TTL: time.Hour}, newTestLogger(),
	)

	sent, err := uc.BroadcastRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "failed sends are skipped")

	require.Len(t, recorder.Sent, 1)
	msg := recorder.Sent[0]
	assert.Equal(t, int64(-1), msg.ChatID)
	assert.Equal(t, adapter.ParseModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<strong>1 hour</strong>")
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, "EXCHANGE_RATE provide", msg.Buttons[0][0].Data)
}
