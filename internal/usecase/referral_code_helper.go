package usecase

import (
	"crypto/rand"
	"io"

	"telegram-entitlement-bot/internal/domain/model"
)

// generateReferralCode returns REF- followed by a random uppercase
// alphanumeric suffix.
func generateReferralCode() (string, error) {
	return referralCodeFrom(rand.Reader)
}

// referralCodeFrom draws one byte per character and rejects bytes at or above
// the largest multiple of the charset size, so every character is equally
// likely.
func referralCodeFrom(r io.Reader) (string, error) {
	const chars = model.ReferralCodeCharset
	limit := 256 - 256%len(chars)

	out := make([]byte, 0, model.ReferralCodeLength)
	buf := make([]byte, model.ReferralCodeLength)
	for len(out) < model.ReferralCodeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, chars[int(b)%len(chars)])
			if len(out) == model.ReferralCodeLength {
				break
			}
		}
	}
	return model.ReferralCodePrefix + string(out), nil
}
