package repository

import (
	"context"

	"telegram-entitlement-bot/internal/domain/model"
)

type BlacklistRepository interface {
	// Find returns domain.ErrNotFound when beneficiary is not blacklisted.
	Find(ctx context.Context, tx Tx, beneficiary int64) (*model.BlacklistEntry, error)
	// Add returns domain.ErrAlreadyExists when an entry is present.
	Add(ctx context.Context, tx Tx, e *model.BlacklistEntry) error
	// Remove hard-deletes the entry and reports whether one existed.
	Remove(ctx context.Context, tx Tx, beneficiary int64) (bool, error)
}
