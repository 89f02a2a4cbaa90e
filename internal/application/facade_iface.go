package application

import (
	"context"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/usecase"
)

// Commands is the surface the command interfaces (Telegram bot, admin API)
// program against. Every method returns a structured result or a
// *domain.Error; raw errors and panics never cross it.
type Commands interface {
	Redeem(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error)
	LookupBeneficiary(ctx context.Context, beneficiary int64) (*model.BeneficiaryReport, error)
	GetOrCreateReferralCode(ctx context.Context, owner int64) (*model.ReferralCode, error)
	ApplyReferral(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error)
	AddTime(ctx context.Context, beneficiary int64, days int) (*model.AddTimeResult, error)
	Blacklist(ctx context.Context, beneficiary int64, reason string, actor int64) (*model.BlacklistEntry, error)
	Unblacklist(ctx context.Context, beneficiary int64) error

	Revoke(ctx context.Context, beneficiary int64) (*model.RevokeResult, error)
	Stats(ctx context.Context) (*model.RedemptionStats, error)
	ReferralSummary(ctx context.Context, owner int64) (*model.ReferralSummary, error)
	RecentReferrals(ctx context.Context, limit int) ([]*model.ReferralUse, error)
	KeyTime(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error)
	ResetDevice(ctx context.Context, beneficiary int64) error
}
