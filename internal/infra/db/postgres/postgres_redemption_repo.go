package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
)

var _ repository.RedemptionRepository = (*redemptionRepo)(nil)

// KeyCipher protects license keys at rest. security.EncryptionService satisfies it.
type KeyCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type redemptionRepo struct {
	pool   *pgxpool.Pool
	cipher KeyCipher
}

// NewRedemptionRepo returns the ledger repository. A nil cipher stores keys in clear.
func NewRedemptionRepo(pool *pgxpool.Pool, cipher KeyCipher) repository.RedemptionRepository {
	return &redemptionRepo{pool: pool, cipher: cipher}
}

const redemptionColumns = `id, purchase_ref, beneficiary, product, variant, plan_label, expires_at, license_key,
       role_granted, active, state, referral_code, granted_by, created_at, deactivated_at`

func (r *redemptionRepo) FindByPurchaseRef(ctx context.Context, tx repository.Tx, purchaseRef string) (*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE purchase_ref = $1`
	row, err := pickRow(ctx, r.pool, tx, q, purchaseRef)
	if err != nil {
		return nil, err
	}
	red, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return red, nil
}

// Claim relies on the purchase_ref unique constraint; the losing insert of a
// concurrent pair gets ErrAlreadyRedeemed.
func (r *redemptionRepo) Claim(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	const q = `
INSERT INTO redemptions (id, purchase_ref, beneficiary, product, variant, plan_label, expires_at,
                         active, state, granted_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 'pending', $8, $9)`
	_, err := execSQL(ctx, r.pool, tx, q,
		red.ID, red.PurchaseRef, red.Beneficiary, red.Product, red.Variant, red.PlanLabel, red.ExpiresAt,
		red.GrantedBy, red.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "redemptions_purchase_ref_key" {
			return domain.ErrAlreadyRedeemed
		}
		return fmt.Errorf("%w: claim redemption: %v", domain.ErrOperationFailed, err)
	}
	red.State = model.RedemptionStatePending
	return nil
}

func (r *redemptionRepo) Finalize(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	key, err := r.sealKey(red.LicenseKey)
	if err != nil {
		return err
	}
	const q = `
UPDATE redemptions
   SET expires_at = $2, license_key = $3, role_granted = $4, active = $5,
       referral_code = $6, state = 'granted'
 WHERE id = $1 AND state = 'pending'`
	tag, err := execSQL(ctx, r.pool, tx, q, red.ID, red.ExpiresAt, key, red.RoleGranted, red.Active, red.ReferralCode)
	if err != nil {
		return fmt.Errorf("%w: finalize redemption: %v", domain.ErrOperationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	red.State = model.RedemptionStateGranted
	return nil
}

func (r *redemptionRepo) ListByBeneficiary(ctx context.Context, tx repository.Tx, beneficiary int64) ([]*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE beneficiary = $1 ORDER BY created_at DESC`
	return r.list(ctx, tx, q, beneficiary)
}

func (r *redemptionRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Redemption, error) {
	if limit <= 0 {
		limit = 500
	}
	q := `SELECT ` + redemptionColumns + `
  FROM redemptions
 WHERE active AND state = 'granted' AND expires_at IS NOT NULL AND expires_at < $1
 ORDER BY expires_at
 LIMIT $2`
	return r.list(ctx, tx, q, now, limit)
}

func (r *redemptionRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + `
  FROM redemptions
 WHERE active AND state = 'granted' AND expires_at >= $1 AND expires_at < $2
 ORDER BY expires_at`
	return r.list(ctx, tx, q, from, to)
}

func (r *redemptionRepo) MarkInactive(ctx context.Context, tx repository.Tx, id string, now time.Time) (bool, error) {
	const q = `
UPDATE redemptions
   SET active = FALSE, deactivated_at = $2
 WHERE id = $1 AND active AND expires_at IS NOT NULL AND expires_at <= $2`
	tag, err := execSQL(ctx, r.pool, tx, q, id, now)
	if err != nil {
		return false, fmt.Errorf("%w: mark inactive: %v", domain.ErrOperationFailed, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *redemptionRepo) DeactivateAll(ctx context.Context, tx repository.Tx, beneficiary int64, now time.Time) (int, error) {
	const q = `UPDATE redemptions SET active = FALSE, deactivated_at = $2 WHERE beneficiary = $1 AND active`
	tag, err := execSQL(ctx, r.pool, tx, q, beneficiary, now)
	if err != nil {
		return 0, fmt.Errorf("%w: deactivate all: %v", domain.ErrOperationFailed, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *redemptionRepo) HasOtherCoverage(ctx context.Context, tx repository.Tx, beneficiary int64, excludeID string, now time.Time) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM redemptions
     WHERE beneficiary = $1 AND id <> $2 AND active AND state = 'granted'
       AND (expires_at IS NULL OR expires_at > $3)
)`
	row, err := pickRow(ctx, r.pool, tx, q, beneficiary, excludeID, now)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *redemptionRepo) ExtendLatestActive(ctx context.Context, tx repository.Tx, beneficiary int64, expiresAt time.Time) (bool, error) {
	const q = `
UPDATE redemptions SET expires_at = $2
 WHERE id = (
    SELECT id FROM redemptions
     WHERE beneficiary = $1 AND active AND state = 'granted' AND expires_at IS NOT NULL
     ORDER BY created_at DESC
     LIMIT 1
 )`
	tag, err := execSQL(ctx, r.pool, tx, q, beneficiary, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%w: extend latest: %v", domain.ErrOperationFailed, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *redemptionRepo) Stats(ctx context.Context, tx repository.Tx, now time.Time) (*model.RedemptionStats, error) {
	const q = `
SELECT COUNT(*) FILTER (WHERE state = 'granted'),
       COUNT(*) FILTER (WHERE state = 'granted' AND created_at >= $1),
       COUNT(*) FILTER (WHERE state = 'granted' AND created_at >= $2),
       COUNT(*) FILTER (WHERE state = 'granted' AND active),
       COUNT(*) FILTER (WHERE state = 'pending')
  FROM redemptions`
	row, err := pickRow(ctx, r.pool, tx, q, now.AddDate(0, 0, -30), now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	st := &model.RedemptionStats{ByVariant: map[string]int{}}
	if err := row.Scan(&st.Total, &st.LastMonth, &st.LastWeek, &st.Active, &st.Pending); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}

	rows, err := queryRows(ctx, r.pool, tx, `
SELECT variant, COUNT(*) FROM redemptions WHERE state = 'granted' GROUP BY variant`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var variant string
		var n int
		if err := rows.Scan(&variant, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		st.ByVariant[variant] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row, err = pickRow(ctx, r.pool, tx, `SELECT COUNT(*), COALESCE(SUM(bonus_days_awarded), 0) FROM referral_uses`)
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&st.Referrals, &st.BonusDays); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return st, nil
}

func (r *redemptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Redemption, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Redemption
	for rows.Next() {
		red, err := r.scan(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, red)
	}
	return out, rows.Err()
}

func (r *redemptionRepo) scan(row pgx.Row) (*model.Redemption, error) {
	var red model.Redemption
	var state string
	err := row.Scan(
		&red.ID, &red.PurchaseRef, &red.Beneficiary, &red.Product, &red.Variant, &red.PlanLabel,
		&red.ExpiresAt, &red.LicenseKey, &red.RoleGranted, &red.Active, &state, &red.ReferralCode,
		&red.GrantedBy, &red.CreatedAt, &red.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}
	red.State = model.RedemptionState(state)
	if red.LicenseKey, err = r.openKey(red.LicenseKey); err != nil {
		return nil, err
	}
	return &red, nil
}

func (r *redemptionRepo) sealKey(key *string) (*string, error) {
	if key == nil || r.cipher == nil {
		return key, nil
	}
	ct, err := r.cipher.Encrypt(*key)
	if err != nil {
		return nil, fmt.Errorf("encrypt license key: %w", err)
	}
	return &ct, nil
}

func (r *redemptionRepo) openKey(stored *string) (*string, error) {
	if stored == nil || r.cipher == nil {
		return stored, nil
	}
	pt, err := r.cipher.Decrypt(*stored)
	if err != nil {
		return nil, fmt.Errorf("decrypt license key: %w", err)
	}
	return &pt, nil
}
