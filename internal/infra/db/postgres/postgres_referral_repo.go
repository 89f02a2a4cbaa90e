package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
)

var _ repository.ReferralRepository = (*referralRepo)(nil)

type referralRepo struct {
	pool *pgxpool.Pool
}

func NewReferralRepo(pool *pgxpool.Pool) repository.ReferralRepository {
	return &referralRepo{pool: pool}
}

func (r *referralRepo) FindCodeByOwner(ctx context.Context, tx repository.Tx, owner int64) (*model.ReferralCode, error) {
	const q = `SELECT owner, code, uses, bonus_days, created_at FROM referral_codes WHERE owner = $1`
	return r.findCode(ctx, tx, q, owner)
}

func (r *referralRepo) FindCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	const q = `SELECT owner, code, uses, bonus_days, created_at FROM referral_codes WHERE code = $1`
	return r.findCode(ctx, tx, q, code)
}

func (r *referralRepo) findCode(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.ReferralCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var c model.ReferralCode
	if err := row.Scan(&c.Owner, &c.Code, &c.Uses, &c.BonusDays, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

// CreateCode does not upsert: a collision on either the code or the owner is
// reported so the caller can regenerate or re-read.
func (r *referralRepo) CreateCode(ctx context.Context, tx repository.Tx, c *model.ReferralCode) error {
	const q = `
INSERT INTO referral_codes (owner, code, uses, bonus_days, created_at)
VALUES ($1, $2, 0, $3, $4)`
	if _, err := execSQL(ctx, r.pool, tx, q, c.Owner, c.Code, c.BonusDays, c.CreatedAt); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("%w: create referral code: %v", domain.ErrOperationFailed, err)
	}
	return nil
}

func (r *referralRepo) InsertUse(ctx context.Context, tx repository.Tx, u *model.ReferralUse) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	// The referred unique constraint is the one-use-per-beneficiary rule.
	const q = `
INSERT INTO referral_uses (id, referred, referrer, code, bonus_days_awarded, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (referred) DO NOTHING`
	tag, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Referred, u.Referrer, u.Code, u.BonusDaysAwarded, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert referral use: %v", domain.ErrOperationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReferralAlreadyUsed
	}
	return nil
}

func (r *referralRepo) IncrementUses(ctx context.Context, tx repository.Tx, code string) error {
	const q = `UPDATE referral_codes SET uses = uses + 1 WHERE code = $1`
	tag, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return fmt.Errorf("%w: increment uses: %v", domain.ErrOperationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *referralRepo) RecordBonus(ctx context.Context, tx repository.Tx, referred int64, days int) error {
	const q = `UPDATE referral_uses SET bonus_days_awarded = $2 WHERE referred = $1 AND bonus_days_awarded = 0`
	if _, err := execSQL(ctx, r.pool, tx, q, referred, days); err != nil {
		return fmt.Errorf("%w: record bonus: %v", domain.ErrOperationFailed, err)
	}
	return nil
}

const referralUseColumns = `id, code, referrer, referred, bonus_days_awarded, created_at`

func (r *referralRepo) FindUseByReferred(ctx context.Context, tx repository.Tx, referred int64) (*model.ReferralUse, error) {
	q := `SELECT ` + referralUseColumns + ` FROM referral_uses WHERE referred = $1`
	row, err := pickRow(ctx, r.pool, tx, q, referred)
	if err != nil {
		return nil, err
	}
	var u model.ReferralUse
	if err := row.Scan(&u.ID, &u.Code, &u.Referrer, &u.Referred, &u.BonusDaysAwarded, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}

func (r *referralRepo) ListUsesByReferrer(ctx context.Context, tx repository.Tx, referrer int64) ([]*model.ReferralUse, error) {
	q := `SELECT ` + referralUseColumns + ` FROM referral_uses WHERE referrer = $1 ORDER BY created_at DESC`
	return r.listUses(ctx, tx, q, referrer)
}

func (r *referralRepo) ListRecentUses(ctx context.Context, tx repository.Tx, limit int) ([]*model.ReferralUse, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT ` + referralUseColumns + ` FROM referral_uses ORDER BY created_at DESC LIMIT $1`
	return r.listUses(ctx, tx, q, limit)
}

func (r *referralRepo) listUses(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.ReferralUse, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ReferralUse
	for rows.Next() {
		var u model.ReferralUse
		if err := rows.Scan(&u.ID, &u.Code, &u.Referrer, &u.Referred, &u.BonusDaysAwarded, &u.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
