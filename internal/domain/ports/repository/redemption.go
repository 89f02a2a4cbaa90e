package repository

import (
	"context"
	"time"

	"telegram-entitlement-bot/internal/domain/model"
)

// -----------------------------
// Redemptions ledger
// -----------------------------

type RedemptionRepository interface {
	// FindByPurchaseRef returns domain.ErrNotFound when the reference was never claimed.
	FindByPurchaseRef(ctx context.Context, tx Tx, purchaseRef string) (*model.Redemption, error)
	// Claim inserts a pending row. A duplicate purchase reference yields domain.ErrAlreadyRedeemed.
	Claim(ctx context.Context, tx Tx, r *model.Redemption) error
	// Finalize records the outcome of a claimed redemption and marks it granted.
	Finalize(ctx context.Context, tx Tx, r *model.Redemption) error
	ListByBeneficiary(ctx context.Context, tx Tx, beneficiary int64) ([]*model.Redemption, error)
	// ListExpired returns active granted rows with expires_at < now.
	ListExpired(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Redemption, error)
	// ListExpiringBetween returns active granted rows with from <= expires_at < to.
	ListExpiringBetween(ctx context.Context, tx Tx, from, to time.Time) ([]*model.Redemption, error)
	// MarkInactive flips active to false only if the row is active and expires_at <= now.
	MarkInactive(ctx context.Context, tx Tx, id string, now time.Time) (bool, error)
	// DeactivateAll closes every active grant of beneficiary (explicit revoke).
	DeactivateAll(ctx context.Context, tx Tx, beneficiary int64, now time.Time) (int, error)
	// HasOtherCoverage reports whether beneficiary holds another active grant,
	// other than excludeID, that is lifetime or still running at the given time.
	HasOtherCoverage(ctx context.Context, tx Tx, beneficiary int64, excludeID string, now time.Time) (bool, error)
	// ExtendLatestActive moves the expiry of the newest active timed grant.
	ExtendLatestActive(ctx context.Context, tx Tx, beneficiary int64, expiresAt time.Time) (bool, error)
	Stats(ctx context.Context, tx Tx, now time.Time) (*model.RedemptionStats, error)
}
