package repository

import (
	"context"

	"telegram-entitlement-bot/internal/domain/model"
)

// -----------------------------
// Referrals
// -----------------------------

type ReferralRepository interface {
	FindCodeByOwner(ctx context.Context, tx Tx, owner int64) (*model.ReferralCode, error)
	FindCode(ctx context.Context, tx Tx, code string) (*model.ReferralCode, error)
	// CreateCode returns domain.ErrAlreadyExists when the code or the owner already exists.
	CreateCode(ctx context.Context, tx Tx, c *model.ReferralCode) error
	// InsertUse returns domain.ErrReferralAlreadyUsed when referred already has a use.
	InsertUse(ctx context.Context, tx Tx, u *model.ReferralUse) error
	IncrementUses(ctx context.Context, tx Tx, code string) error
	// RecordBonus stores the bonus days that were materialized for referred's use.
	RecordBonus(ctx context.Context, tx Tx, referred int64, days int) error
	FindUseByReferred(ctx context.Context, tx Tx, referred int64) (*model.ReferralUse, error)
	ListUsesByReferrer(ctx context.Context, tx Tx, referrer int64) ([]*model.ReferralUse, error)
	ListRecentUses(ctx context.Context, tx Tx, limit int) ([]*model.ReferralUse, error)
}
