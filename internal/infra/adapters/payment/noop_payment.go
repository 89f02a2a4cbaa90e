package payment

import (
	"context"
	"sync"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentVerifier = (*NoopPaymentVerifier)(nil)

// NoopPaymentVerifier serves purchases from memory. Used in dev mode when no
// commerce credentials are configured.
type NoopPaymentVerifier struct {
	mu        sync.Mutex
	purchases map[string]model.Purchase
}

func NewNoopPaymentVerifier() *NoopPaymentVerifier {
	return &NoopPaymentVerifier{purchases: make(map[string]model.Purchase)}
}

// Put registers or replaces a purchase.
func (v *NoopPaymentVerifier) Put(p model.Purchase) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.purchases[p.Ref] = p
}

func (v *NoopPaymentVerifier) Fetch(ctx context.Context, purchaseRef string) (*model.Purchase, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.purchases[purchaseRef]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}
