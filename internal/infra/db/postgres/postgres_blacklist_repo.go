package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
)

var _ repository.BlacklistRepository = (*blacklistRepo)(nil)

type blacklistRepo struct {
	pool *pgxpool.Pool
}

func NewBlacklistRepo(pool *pgxpool.Pool) repository.BlacklistRepository {
	return &blacklistRepo{pool: pool}
}

func (r *blacklistRepo) Find(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error) {
	const q = `SELECT beneficiary, reason, actor, created_at FROM blacklist WHERE beneficiary = $1`
	row, err := pickRow(ctx, r.pool, tx, q, beneficiary)
	if err != nil {
		return nil, err
	}
	var e model.BlacklistEntry
	if err := row.Scan(&e.Beneficiary, &e.Reason, &e.Actor, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &e, nil
}

func (r *blacklistRepo) Add(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	const q = `
INSERT INTO blacklist (beneficiary, reason, actor, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (beneficiary) DO NOTHING`
	tag, err := execSQL(ctx, r.pool, tx, q, e.Beneficiary, e.Reason, e.Actor, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: add blacklist: %v", domain.ErrOperationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *blacklistRepo) Remove(ctx context.Context, tx repository.Tx, beneficiary int64) (bool, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM blacklist WHERE beneficiary = $1`, beneficiary)
	if err != nil {
		return false, fmt.Errorf("%w: remove blacklist: %v", domain.ErrOperationFailed, err)
	}
	return tag.RowsAffected() > 0, nil
}
