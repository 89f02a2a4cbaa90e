package adapter

import "context"

// PlatformBinding is the community platform side of an entitlement.
// Callers treat every method as best-effort.
type PlatformBinding interface {
	GrantRole(ctx context.Context, beneficiary int64) error
	RevokeRole(ctx context.Context, beneficiary int64) error
	Notify(ctx context.Context, beneficiary int64, message string) error
}
