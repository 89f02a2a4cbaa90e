package model

import (
	"strings"
	"time"

	"telegram-entitlement-bot/internal/domain"
)

type BlacklistEntry struct {
	Beneficiary int64
	Reason      string
	Actor       int64
	CreatedAt   time.Time
}

func NewBlacklistEntry(beneficiary int64, reason string, actor int64, now time.Time) (*BlacklistEntry, error) {
	if beneficiary == 0 {
		return nil, domain.ErrInvalidArgument
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}
	return &BlacklistEntry{Beneficiary: beneficiary, Reason: reason, Actor: actor, CreatedAt: now}, nil
}
