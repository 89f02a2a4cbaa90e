//go:build !integration

package application_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/application"
	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/usecase"
)

type mockRedeemUC struct {
	fn func(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error)
}

func (m *mockRedeemUC) Redeem(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error) {
	return m.fn(ctx, req)
}

type mockReferralUC struct {
	applyFn func(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error)
}

func (m *mockReferralUC) GetOrCreateCode(ctx context.Context, owner int64) (*model.ReferralCode, error) {
	return &model.ReferralCode{Owner: owner, Code: "REF-AAAAAA"}, nil
}

func (m *mockReferralUC) Apply(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error) {
	return m.applyFn(ctx, code, referred)
}

func (m *mockReferralUC) Summary(ctx context.Context, owner int64) (*model.ReferralSummary, error) {
	return &model.ReferralSummary{}, nil
}

func (m *mockReferralUC) RecentUses(ctx context.Context, limit int) ([]*model.ReferralUse, error) {
	out := make([]*model.ReferralUse, limit)
	return out, nil
}

// mockAdminUC embeds the interface so tests only override what they use.
type mockAdminUC struct {
	usecase.AdminUseCase
	statsFn       func(ctx context.Context) (*model.RedemptionStats, error)
	unblacklistFn func(ctx context.Context, beneficiary int64) error
}

func (m *mockAdminUC) Stats(ctx context.Context) (*model.RedemptionStats, error) {
	return m.statsFn(ctx)
}

func (m *mockAdminUC) Unblacklist(ctx context.Context, beneficiary int64) error {
	return m.unblacklistFn(ctx, beneficiary)
}

func newFacade(r usecase.RedemptionUseCase, ref usecase.ReferralUseCase, a usecase.AdminUseCase) *application.Facade {
	logger := zerolog.New(io.Discard)
	return application.NewFacade(r, ref, a, &logger)
}

func TestFacade_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("should pass through a classified result", func(t *testing.T) {
		f := newFacade(&mockRedeemUC{fn: func(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error) {
			err := domain.E(domain.KindBlocked, "redeem", domain.ErrBlocked)
			return &model.RedemptionResult{PurchaseRef: req.PurchaseRef, Kind: domain.KindBlocked, Err: err}, err
		}}, nil, nil)

		res, err := f.Redeem(ctx, usecase.RedeemRequest{PurchaseRef: "INV-1", Beneficiary: 1})

		if res.Kind != domain.KindBlocked || !errors.Is(err, domain.ErrBlocked) {
			t.Errorf("expected blocked, got %s (%v)", res.Kind, err)
		}
	})

	t.Run("should convert a panic into an unexpected result", func(t *testing.T) {
		f := newFacade(&mockRedeemUC{fn: func(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error) {
			panic("nil map write")
		}}, nil, nil)

		res, err := f.Redeem(ctx, usecase.RedeemRequest{PurchaseRef: "INV-2", Beneficiary: 1})

		if res == nil {
			t.Fatal("a result must always be returned")
		}
		if res.Kind != domain.KindUnexpected || !errors.Is(err, domain.ErrUnexpected) {
			t.Errorf("expected unexpected, got %s (%v)", res.Kind, err)
		}
		if res.PurchaseRef != "INV-2" || res.Granted {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("should classify a raw error", func(t *testing.T) {
		f := newFacade(&mockRedeemUC{fn: func(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error) {
			return nil, errors.New("socket closed")
		}}, nil, nil)

		res, err := f.Redeem(ctx, usecase.RedeemRequest{PurchaseRef: "INV-3", Beneficiary: 1})

		var de *domain.Error
		if !errors.As(err, &de) || de.Kind != domain.KindUnexpected || res.Kind != domain.KindUnexpected {
			t.Errorf("expected an unexpected *domain.Error, got %T %v", err, err)
		}
	})
}

func TestFacade_ApplyReferral(t *testing.T) {
	ctx := context.Background()

	t.Run("should always return an outcome", func(t *testing.T) {
		f := newFacade(nil, &mockReferralUC{applyFn: func(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error) {
			panic("boom")
		}}, nil)

		out, err := f.ApplyReferral(ctx, "REF-AAAAAA", 5)

		if out == nil || out.Accepted() || domain.KindOf(err) != domain.KindUnexpected {
			t.Errorf("expected a rejected outcome with unexpected error, got %+v (%v)", out, err)
		}
	})

	t.Run("should classify rejection reasons", func(t *testing.T) {
		f := newFacade(nil, &mockReferralUC{applyFn: func(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error) {
			return &model.ReferralOutcome{Status: model.ReferralRejected}, domain.ErrReferralSelf
		}}, nil)

		_, err := f.ApplyReferral(ctx, "REF-AAAAAA", 5)

		if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("expected validation, got %v", err)
		}
	})
}

func TestFacade_AdminOps(t *testing.T) {
	ctx := context.Background()
	admin := &mockAdminUC{
		statsFn: func(ctx context.Context) (*model.RedemptionStats, error) {
			panic("stats exploded")
		},
		unblacklistFn: func(ctx context.Context, beneficiary int64) error {
			return domain.ErrNotFound
		},
	}
	f := newFacade(nil, &mockReferralUC{}, admin)

	if _, err := f.Stats(ctx); domain.KindOf(err) != domain.KindUnexpected {
		t.Errorf("stats: expected unexpected, got %v", err)
	}
	if err := f.Unblacklist(ctx, 1); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("unblacklist: expected not found, got %v", err)
	}
	uses, err := f.RecentReferrals(ctx, 500)
	if err != nil || len(uses) != 10 {
		t.Errorf("recent referrals should clamp the limit to 10, got %d (%v)", len(uses), err)
	}
}
