package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/repository"
)

var _ repository.ChatGroupRepository = (*ChatGroupRepo)(nil)

type ChatGroupRepo struct {
	pool *pgxpool.Pool
}

func NewChatGroupRepo(pool *pgxpool.Pool) *ChatGroupRepo {
	return &ChatGroupRepo{pool: pool}
}

const groupColumns = `id, title, type, in_group, bot_type, description, customer_service, updated_at`

func (r *ChatGroupRepo) Upsert(ctx context.Context, qx repository.Tx, g *model.ChatGroup) error {
	// customer_service keeps the first contact ever recorded for the group
	const q = `
INSERT INTO chat_groups (` + groupColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  title=$2, type=$3, in_group=$4, bot_type=$5, updated_at=$8,
  customer_service=COALESCE(chat_groups.customer_service, EXCLUDED.customer_service);
`
	var cs []byte
	if g.CustomerService != nil {
		b, err := json.Marshal(g.CustomerService)
		if err != nil {
			return err
		}
		cs = b
	}
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, g.ID, g.Title, g.Type, g.InGroup, string(g.BotType), g.Description, cs, g.UpdatedAt); err != nil {
		return fmt.Errorf("upsert chat group %d: %w", g.ID, err)
	}
	return nil
}

func (r *ChatGroupRepo) FindByID(ctx context.Context, qx repository.Tx, id int64) (*model.ChatGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM chat_groups WHERE id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	g, err := scanGroup(ex.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat group %d: %w", id, err)
	}
	return g, nil
}

func (r *ChatGroupRepo) ListByBotType(ctx context.Context, qx repository.Tx, botType model.BotType, inGroupOnly bool) ([]*model.ChatGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM chat_groups WHERE bot_type=$1 AND (in_group OR NOT $2) ORDER BY id;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, string(botType), inGroupOnly)
	if err != nil {
		return nil, fmt.Errorf("list chat groups: %w", err)
	}
	defer rows.Close()

	var out []*model.ChatGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *ChatGroupRepo) SaveMember(ctx context.Context, qx repository.Tx, chatID int64, a *model.TelegramAccount) error {
	const q = `
INSERT INTO chat_group_members (chat_id, user_id, updated_at) VALUES ($1,$2,$3)
ON CONFLICT (chat_id, user_id) DO UPDATE SET updated_at=$3;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, chatID, a.ID, a.UpdatedAt); err != nil {
		return fmt.Errorf("save member %d of %d: %w", a.ID, chatID, err)
	}
	return nil
}

func (r *ChatGroupRepo) DeleteMember(ctx context.Context, qx repository.Tx, chatID, userID int64) error {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM chat_group_members WHERE chat_id=$1 AND user_id=$2;`, chatID, userID)
	return err
}

func (r *ChatGroupRepo) ListMembers(ctx context.Context, qx repository.Tx, chatID int64) ([]*model.TelegramAccount, error) {
	const q = `
SELECT a.id, a.username, a.first_name, a.last_name, a.language_code, a.is_bot, a.is_premium, a.description, a.updated_at
  FROM chat_group_members m JOIN telegram_accounts a ON a.id = m.user_id
 WHERE m.chat_id=$1 ORDER BY a.id;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, chatID)
	if err != nil {
		return nil, fmt.Errorf("list members of %d: %w", chatID, err)
	}
	defer rows.Close()

	var out []*model.TelegramAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ChatGroupRepo) ListAccountGroups(ctx context.Context, qx repository.Tx, userID int64) ([]*model.ChatGroup, error) {
	const q = `
SELECT g.id, g.title, g.type, g.in_group, g.bot_type, g.description, g.customer_service, g.updated_at
  FROM chat_group_members m JOIN chat_groups g ON g.id = m.chat_id
 WHERE m.user_id=$1 ORDER BY g.id;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups of %d: %w", userID, err)
	}
	defer rows.Close()

	var out []*model.ChatGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGroup(row pgx.Row) (*model.ChatGroup, error) {
	var (
		g       model.ChatGroup
		botType string
		cs      []byte
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Type, &g.InGroup, &botType, &g.Description, &cs, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.BotType = model.BotType(botType)
	if len(cs) > 0 {
		var acc model.TelegramAccount
		if err := json.Unmarshal(cs, &acc); err != nil {
			return nil, fmt.Errorf("decode customer service of %d: %w", g.ID, err)
		}
		g.CustomerService = &acc
	}
	return &g, nil
}
