package adapter

import (
	"context"

	"telegram-entitlement-bot/internal/domain/model"
)

// PaymentVerifier is the port to the commerce provider.
type PaymentVerifier interface {
	// Fetch returns the normalized purchase, domain.ErrPaymentNotFound when the
	// provider has no such purchase, or domain.ErrUpstreamUnavailable after retries.
	Fetch(ctx context.Context, purchaseRef string) (*model.Purchase, error)
}
