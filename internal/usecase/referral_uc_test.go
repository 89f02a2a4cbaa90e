//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/usecase"
)

type referralFixture struct {
	referrals   *MockReferralRepo
	redemptions *MockRedemptionRepo
	license     *MockLicense
	platform    *MockPlatform
	uc          usecase.ReferralUseCase
}

func newReferralFixture() *referralFixture {
	f := &referralFixture{
		referrals:   NewMockReferralRepo(),
		redemptions: NewMockRedemptionRepo(),
		license:     NewMockLicense(),
		platform:    &MockPlatform{},
	}
	f.uc = usecase.NewReferralUseCase(f.referrals, f.redemptions, f.license, f.platform,
		NewMockTxManager(), newTestTranslator(), 3, newTestLogger())
	return f
}

func (f *referralFixture) code(t *testing.T, owner int64) string {
	t.Helper()
	c, err := f.uc.GetOrCreateCode(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetOrCreateCode: %v", err)
	}
	return c.Code
}

func TestReferralUseCase_GetOrCreateCode(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a well-formed code once and return it afterwards", func(t *testing.T) {
		f := newReferralFixture()

		first, err := f.uc.GetOrCreateCode(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, _ := f.uc.GetOrCreateCode(ctx, 1)

		if _, err := model.NormalizeReferralCode(first.Code); err != nil {
			t.Errorf("malformed code %q", first.Code)
		}
		if first.Code != second.Code || f.referrals.CreateCalls != 1 {
			t.Errorf("expected a stable code, got %q then %q (%d creates)", first.Code, second.Code, f.referrals.CreateCalls)
		}
		if first.BonusDays != 3 {
			t.Errorf("expected 3 bonus days, got %d", first.BonusDays)
		}
	})

	t.Run("should regenerate on a code collision", func(t *testing.T) {
		f := newReferralFixture()
		calls := 0
		f.referrals.CreateCodeFunc = func(ctx context.Context, tx repository.Tx, c *model.ReferralCode) error {
			calls++
			if calls == 1 {
				return domain.ErrAlreadyExists
			}
			f.referrals.CreateCodeFunc = nil
			return f.referrals.CreateCode(ctx, tx, c)
		}

		c, err := f.uc.GetOrCreateCode(ctx, 2)

		if err != nil || c == nil {
			t.Fatalf("expected a code after a collision, got %v", err)
		}
	})

	t.Run("should give up after repeated collisions", func(t *testing.T) {
		f := newReferralFixture()
		f.referrals.CreateCodeFunc = func(ctx context.Context, tx repository.Tx, c *model.ReferralCode) error {
			return domain.ErrAlreadyExists
		}

		_, err := f.uc.GetOrCreateCode(ctx, 3)

		if !errors.Is(err, domain.ErrUnexpected) {
			t.Errorf("expected unexpected error, got %v", err)
		}
	})
}

func TestReferralUseCase_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("should record the use and credit the referrer", func(t *testing.T) {
		// --- Arrange ---
		f := newReferralFixture()
		code := f.code(t, 10)
		exp := now().Add(5 * model.Day)
		f.license.Seed(10, "KEY-10", &exp)
		f.redemptions.Seed(activeRow("r10", 10, ptrTime(exp), "KEY-10"))

		// --- Act ---
		out, err := f.uc.Apply(ctx, strings.ToLower(code), 20)

		// --- Assert ---
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != model.ReferralApplied || out.BonusDaysAwarded != 3 || out.Referrer != 10 {
			t.Fatalf("unexpected outcome %+v", out)
		}
		use := f.referrals.Use(20)
		if use == nil || use.BonusDaysAwarded != 3 || use.Code != code {
			t.Fatalf("unexpected use row %+v", use)
		}
		rc, _ := f.referrals.FindCode(ctx, nil, code)
		if rc.Uses != 1 {
			t.Errorf("expected 1 use on the code, got %d", rc.Uses)
		}
		lic, _ := f.license.Get(10)
		if !lic.ExpiresAt.Equal(exp.Add(3 * model.Day)) {
			t.Errorf("expected key pushed by 3 days, got %v", lic.ExpiresAt)
		}
		if row := f.redemptions.Get("r10"); !row.ExpiresAt.Equal(*lic.ExpiresAt) {
			t.Errorf("ledger expiry should follow the key, got %v", row.ExpiresAt)
		}
		if msgs := f.platform.NotifiedTo(10); len(msgs) != 1 || !strings.HasPrefix(msgs[0], "bonus "+code+" 3") {
			t.Errorf("expected a bonus notice, got %v", msgs)
		}
	})

	t.Run("should reject self referral without any mutation", func(t *testing.T) {
		f := newReferralFixture()
		code := f.code(t, 30)

		out, err := f.uc.Apply(ctx, code, 30)

		if !errors.Is(err, domain.ErrReferralSelf) || out.Status != model.ReferralRejected {
			t.Fatalf("expected self rejection, got %+v (%v)", out, err)
		}
		rc, _ := f.referrals.FindCode(ctx, nil, code)
		if f.referrals.UseCount() != 0 || rc.Uses != 0 {
			t.Error("self referral must not write a use or bump the counter")
		}
	})

	t.Run("should allow at most one use per referred across codes", func(t *testing.T) {
		f := newReferralFixture()
		a := f.code(t, 40)
		b := f.code(t, 41)

		if _, err := f.uc.Apply(ctx, a, 50); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		out, err := f.uc.Apply(ctx, b, 50)

		if !errors.Is(err, domain.ErrReferralAlreadyUsed) || out.Accepted() {
			t.Fatalf("expected already used, got %+v (%v)", out, err)
		}
		if f.referrals.UseCount() != 1 {
			t.Errorf("expected one use row, got %d", f.referrals.UseCount())
		}
	})

	t.Run("should admit one use under concurrent applies", func(t *testing.T) {
		f := newReferralFixture()
		codes := []string{f.code(t, 60), f.code(t, 61), f.code(t, 62), f.code(t, 63)}

		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0
		for _, c := range codes {
			wg.Add(1)
			go func(c string) {
				defer wg.Done()
				out, _ := f.uc.Apply(ctx, c, 70)
				if out.Accepted() {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}(c)
		}
		wg.Wait()

		if accepted != 1 || f.referrals.UseCount() != 1 {
			t.Errorf("expected exactly one accepted use, got %d accepted and %d rows", accepted, f.referrals.UseCount())
		}
	})

	t.Run("should reject unknown and malformed codes", func(t *testing.T) {
		f := newReferralFixture()

		_, err := f.uc.Apply(ctx, "REF-ZZZZZZ", 1)
		if !errors.Is(err, domain.ErrReferralUnknownCode) {
			t.Errorf("expected unknown code, got %v", err)
		}
		_, err = f.uc.Apply(ctx, "hello", 1)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("should accept with zero days when the referrer has no key", func(t *testing.T) {
		f := newReferralFixture()
		code := f.code(t, 80)

		out, err := f.uc.Apply(ctx, code, 81)

		if err != nil || out.Status != model.ReferralNoLicense || out.BonusDaysAwarded != 0 {
			t.Fatalf("unexpected outcome %+v (%v)", out, err)
		}
		if u := f.referrals.Use(81); u == nil || u.BonusDaysAwarded != 0 {
			t.Errorf("use must be recorded with 0 days, got %+v", u)
		}
	})

	t.Run("should accept with zero days for a lifetime referrer", func(t *testing.T) {
		f := newReferralFixture()
		code := f.code(t, 82)
		f.license.Seed(82, "KEY-LIFE", nil)

		out, _ := f.uc.Apply(ctx, code, 83)

		if out.Status != model.ReferralLifetime || len(f.license.Calls.Extend) != 0 {
			t.Errorf("expected lifetime outcome without extend, got %+v", out)
		}
	})

	t.Run("should accept with zero days when the license service fails", func(t *testing.T) {
		f := newReferralFixture()
		code := f.code(t, 84)
		exp := now().Add(model.Day)
		f.license.Seed(84, "KEY-84", &exp)
		f.license.ExtendFunc = func(ctx context.Context, key string, days int) (*model.ExtendResult, error) {
			return nil, domain.ErrUpstreamUnavailable
		}

		out, err := f.uc.Apply(ctx, code, 85)

		if err != nil || out.Status != model.ReferralBonusFailed {
			t.Fatalf("unexpected outcome %+v (%v)", out, err)
		}
		if u := f.referrals.Use(85); u.BonusDaysAwarded != 0 {
			t.Errorf("no days should be recorded, got %d", u.BonusDaysAwarded)
		}
	})
}

func TestReferralUseCase_Summary(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture()
	code := f.code(t, 90)
	exp := now().Add(model.Day)
	f.license.Seed(90, "KEY-90", &exp)
	_, _ = f.uc.Apply(ctx, code, 91)
	_, _ = f.uc.Apply(ctx, code, 92)

	s, err := f.uc.Summary(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Code == nil || len(s.Uses) != 2 || s.BonusDays != 6 {
		t.Errorf("unexpected summary %+v", s)
	}

	recent, _ := f.uc.RecentUses(ctx, 1)
	if len(recent) != 1 || recent[0].Referred != 92 {
		t.Errorf("expected the newest use first, got %+v", recent)
	}
}
