package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Save(ctx context.Context, qx repository.Tx, a *model.TelegramAccount) error {
	const q = `
INSERT INTO telegram_accounts (
  id, username, first_name, last_name, language_code, is_bot, is_premium, description, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  username=$2, first_name=$3, last_name=$4, language_code=$5,
  is_bot=$6, is_premium=$7, updated_at=$9;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, a.ID, a.Username, a.FirstName, a.LastName, a.LanguageCode, a.IsBot, a.IsPremium, a.Description, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save account %d: %w", a.ID, err)
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, qx repository.Tx, id int64) (*model.TelegramAccount, error) {
	const q = `
SELECT id, username, first_name, last_name, language_code, is_bot, is_premium, description, updated_at
  FROM telegram_accounts WHERE id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	a, err := scanAccount(ex.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*model.TelegramAccount, error) {
	var a model.TelegramAccount
	if err := row.Scan(&a.ID, &a.Username, &a.FirstName, &a.LastName, &a.LanguageCode, &a.IsBot, &a.IsPremium, &a.Description, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
