package adapter

import (
	"context"
	"time"

	"telegram-entitlement-bot/internal/domain/model"
)

// LicenseService is the port to the external whitelist/licensing provider.
// Failures come back as domain.ErrUpstreamUnavailable or domain.ErrUpstreamRejected.
type LicenseService interface {
	// CreateOrRefresh issues a key for beneficiary or refreshes the expiry of the
	// key it already holds. One key per beneficiary.
	CreateOrRefresh(ctx context.Context, beneficiary int64, planLabel, note string) (*model.LicenseInfo, error)
	// Lookup returns domain.ErrNoLicense when the beneficiary has no key.
	Lookup(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error)
	// Revoke deletes the key. It reports false when the key was already gone.
	Revoke(ctx context.Context, key string) (bool, error)
	// Extend pushes the expiry by days. Lifetime keys yield ExtendResult.Lifetime.
	Extend(ctx context.Context, key string, days int) (*model.ExtendResult, error)
	// ResetDevice clears the hardware binding of the key.
	ResetDevice(ctx context.Context, key string) error
	// Horizon is the expiry horizon the service applies to planLabel.
	Horizon(planLabel string) (time.Duration, bool)
}
