//go:build !integration

package usecase

import (
	"bytes"
	"testing"

	"telegram-entitlement-bot/internal/domain/model"
)

func TestReferralCodeFrom(t *testing.T) {
	t.Run("should skip bytes that would bias the charset", func(t *testing.T) {
		// --- Arrange ---
		// 252..255 fold onto A-D under a plain modulo and must be redrawn.
		src := bytes.NewReader([]byte{252, 0, 255, 1, 35, 36, 253, 254, 71, 2, 0, 0})

		// --- Act ---
		code, err := referralCodeFrom(src)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if code != "REF-AB9A9C" {
			t.Errorf("expected REF-AB9A9C, got %q", code)
		}
	})

	t.Run("should always produce a valid code", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code, err := generateReferralCode()
			if err != nil {
				t.Fatalf("expected no error, but got: %v", err)
			}
			if _, err := model.NormalizeReferralCode(code); err != nil {
				t.Fatalf("generated invalid code %q: %v", code, err)
			}
		}
	})

	t.Run("should fail when the source runs dry", func(t *testing.T) {
		if _, err := referralCodeFrom(bytes.NewReader([]byte{255, 255})); err == nil {
			t.Fatal("expected an error from a short source")
		}
	})
}
