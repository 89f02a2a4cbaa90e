//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
)

func TestReferralRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewReferralRepo(testPool)
	tm := NewTxManager(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	seed := func(t *testing.T) {
		cleanup(t)
		for _, c := range []*model.ReferralCode{
			{Owner: 3, Code: "REF-AAAAAA", BonusDays: 3, CreatedAt: now},
			{Owner: 5, Code: "REF-BBBBBB", BonusDays: 3, CreatedAt: now},
		} {
			if err := repo.CreateCode(ctx, nil, c); err != nil {
				t.Fatalf("seed code %s: %v", c.Code, err)
			}
		}
	}

	t.Run("should reject duplicate codes and second code per owner", func(t *testing.T) {
		seed(t)
		err := repo.CreateCode(ctx, nil, &model.ReferralCode{Owner: 99, Code: "REF-AAAAAA", BonusDays: 3, CreatedAt: now})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists for code collision, got %v", err)
		}
		err = repo.CreateCode(ctx, nil, &model.ReferralCode{Owner: 3, Code: "REF-CCCCCC", BonusDays: 3, CreatedAt: now})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists for owner collision, got %v", err)
		}
		c, err := repo.FindCodeByOwner(ctx, nil, 3)
		if err != nil || c.Code != "REF-AAAAAA" {
			t.Errorf("expected owner 3 to keep REF-AAAAAA, got %v (%v)", c, err)
		}
	})

	t.Run("should allow one use per referred identity across codes", func(t *testing.T) {
		seed(t)
		apply := func(code string, referrer int64) error {
			return tm.WithTx(ctx, pgxTxOpts, func(ctx context.Context, tx repository.Tx) error {
				if err := repo.InsertUse(ctx, tx, &model.ReferralUse{Code: code, Referrer: referrer, Referred: 4, CreatedAt: now}); err != nil {
					return err
				}
				return repo.IncrementUses(ctx, tx, code)
			})
		}

		if err := apply("REF-AAAAAA", 3); err != nil {
			t.Fatalf("first use: %v", err)
		}
		if err := apply("REF-BBBBBB", 5); !errors.Is(err, domain.ErrReferralAlreadyUsed) {
			t.Fatalf("expected ErrReferralAlreadyUsed, got %v", err)
		}

		a, _ := repo.FindCode(ctx, nil, "REF-AAAAAA")
		b, _ := repo.FindCode(ctx, nil, "REF-BBBBBB")
		if a.Uses != 1 || b.Uses != 0 {
			t.Errorf("expected uses 1/0, got %d/%d", a.Uses, b.Uses)
		}

		if err := repo.RecordBonus(ctx, nil, 4, 3); err != nil {
			t.Fatalf("RecordBonus: %v", err)
		}
		u, err := repo.FindUseByReferred(ctx, nil, 4)
		if err != nil || u.BonusDaysAwarded != 3 || u.Referrer != 3 {
			t.Errorf("unexpected use row %+v (%v)", u, err)
		}
		uses, err := repo.ListUsesByReferrer(ctx, nil, 3)
		if err != nil || len(uses) != 1 {
			t.Errorf("expected one use for referrer 3, got %d (%v)", len(uses), err)
		}
		recent, err := repo.ListRecentUses(ctx, nil, 5)
		if err != nil || len(recent) != 1 {
			t.Errorf("expected one recent use, got %d (%v)", len(recent), err)
		}
	})
}

func TestBlacklistRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewBlacklistRepo(testPool)

	t.Run("should add, find and hard delete an entry", func(t *testing.T) {
		cleanup(t)
		e, _ := model.NewBlacklistEntry(77, "chargeback", 1, time.Now().UTC())

		if err := repo.Add(ctx, nil, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := repo.Add(ctx, nil, e); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
		got, err := repo.Find(ctx, nil, 77)
		if err != nil || got.Reason != "chargeback" {
			t.Fatalf("Find: %+v (%v)", got, err)
		}
		removed, err := repo.Remove(ctx, nil, 77)
		if err != nil || !removed {
			t.Fatalf("Remove: %v (%v)", removed, err)
		}
		if _, err := repo.Find(ctx, nil, 77); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after removal, got %v", err)
		}
	})
}
