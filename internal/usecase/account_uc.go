package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/domain/ports/repository"
	"telegram-exchange-assistant/internal/infra/i18n"
	"telegram-exchange-assistant/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase keeps the record of groups the bot serves and the people in them.
type AccountUseCase interface {
	SetupAccountInfo(ctx context.Context, account model.TelegramAccount, group model.ChatGroup) error
	TrackChat(ctx context.Context, change model.ChatMemberChange) error
	MembersJoined(ctx context.Context, group model.ChatGroup, members []model.TelegramAccount) error
	MemberLeft(ctx context.Context, chatID int64, member model.TelegramAccount) error
	Broadcast(ctx context.Context, chatID int64, text string) (int, error)
}

type accountUC struct {
	accounts repository.AccountRepository
	groups   repository.ChatGroupRepository
	bot      adapter.TelegramBotAdapter
	tr       *i18n.Translator
	botType  model.BotType
	// leaveDelay lets the goodbye message land before the bot leaves.
	leaveDelay time.Duration
	now        func() time.Time
	log        *zerolog.Logger
}

func NewAccountUseCase(
	accounts repository.AccountRepository,
	groups repository.ChatGroupRepository,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	botType model.BotType,
	logger *zerolog.Logger,
) *accountUC {
	return &accountUC{
		accounts:   accounts,
		groups:     groups,
		bot:        bot,
		tr:         tr,
		botType:    botType,
		leaveDelay: 2 * time.Second,
		now:        time.Now,
		log:        logger,
	}
}

// WithLeaveDelay overrides the pause before leaving a private chat. Used by tests.
func (uc *accountUC) WithLeaveDelay(d time.Duration) *accountUC {
	uc.leaveDelay = d
	return uc
}

func (uc *accountUC) SetupAccountInfo(ctx context.Context, account model.TelegramAccount, group model.ChatGroup) error {
	defer logging.TraceDuration(uc.log, "AccountUC.SetupAccountInfo")()

	if !model.IsGroupChat(group.Type) {
		return domain.ErrNotGroupChat
	}
	now := uc.now().UTC()
	account.UpdatedAt = now
	group.UpdatedAt = now
	if group.BotType == "" {
		group.BotType = uc.botType
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return uc.accounts.Save(gctx, repository.NoTX, &account)
	})
	g.Go(func() error {
		return uc.groups.Upsert(gctx, repository.NoTX, &group)
	})
	g.Go(func() error {
		return uc.groups.SaveMember(gctx, repository.NoTX, group.ID, &account)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("setup account %d in chat %d: %w", account.ID, group.ID, err)
	}
	return nil
}

func (uc *accountUC) TrackChat(ctx context.Context, change model.ChatMemberChange) error {
	defer logging.TraceDuration(uc.log, "AccountUC.TrackChat")()

	_, isMember, ok := change.StatusChange()
	if !ok {
		return nil
	}

	if !model.IsGroupChat(change.ChatType) {
		if !isMember {
			return nil
		}
		uc.log.Info().Int64("chat_id", change.ChatID).Str("type", change.ChatType).Msg("leaving non-group chat")
		if _, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: change.ChatID, Text: uc.tr.T("common.groups_only")}); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", change.ChatID).Msg("goodbye not delivered")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uc.leaveDelay):
		}
		if err := uc.bot.LeaveChat(ctx, change.ChatID); err != nil {
			return fmt.Errorf("leave chat %d: %w", change.ChatID, err)
		}
		return nil
	}

	by := change.By
	group := model.ChatGroup{
		ID:              change.ChatID,
		Title:           change.ChatTitle,
		Type:            change.ChatType,
		InGroup:         isMember,
		BotType:         uc.botType,
		CustomerService: &by,
	}
	return uc.SetupAccountInfo(ctx, change.By, group)
}

func (uc *accountUC) MembersJoined(ctx context.Context, group model.ChatGroup, members []model.TelegramAccount) error {
	defer logging.TraceDuration(uc.log, "AccountUC.MembersJoined")()

	group.InGroup = true
	var errs []error
	for _, m := range members {
		if m.IsBot {
			continue
		}
		if err := uc.SetupAccountInfo(ctx, m, group); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (uc *accountUC) MemberLeft(ctx context.Context, chatID int64, member model.TelegramAccount) error {
	defer logging.TraceDuration(uc.log, "AccountUC.MemberLeft")()

	if member.IsBot {
		return nil
	}
	if err := uc.groups.DeleteMember(ctx, repository.NoTX, chatID, member.ID); err != nil {
		return fmt.Errorf("remove member %d from chat %d: %w", member.ID, chatID, err)
	}
	return nil
}

// Broadcast posts text to one known group and returns the sent message id.
func (uc *accountUC) Broadcast(ctx context.Context, chatID int64, text string) (int, error) {
	defer logging.TraceDuration(uc.log, "AccountUC.Broadcast")()

	if text == "" {
		return 0, domain.ErrInvalidArgument
	}
	group, err := uc.groups.FindByID(ctx, repository.NoTX, chatID)
	if err != nil {
		return 0, err
	}
	if !group.InGroup {
		return 0, fmt.Errorf("bot left chat %d: %w", chatID, domain.ErrNotFound)
	}
	return uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ParseMode: adapter.ParseModeHTML})
}
