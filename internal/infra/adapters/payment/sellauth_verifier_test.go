//go:build !integration

package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/domain"
)

func newVerifier(t *testing.T, h http.Handler) *SellAuthVerifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	v, err := NewSellAuthVerifier(config.PaymentConfig{
		BaseURL: srv.URL,
		APIKey:  "k",
		ShopID:  "shop1",
		Timeout: 2 * time.Second,
		Retry:   config.RetryConfig{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond},
	}, &logger)
	require.NoError(t, err)
	return v
}

func TestSellAuthVerifier_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("should normalize a paid invoice", func(t *testing.T) {
		v := newVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/shops/shop1/invoices/INV-1", r.URL.Path)
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":1,"status":"Completed","refunded":false,"created_at":"2026-01-02T03:04:05.000000Z",
				"items":[{"product":{"name":" Pro Script "},"variant":{"name":"Month"}}]}`))
		}))

		p, err := v.Fetch(ctx, "INV-1")
		require.NoError(t, err)
		assert.True(t, p.IsPaid())
		assert.Equal(t, "Pro Script", p.Product)
		assert.Equal(t, "Month", p.Variant)
		require.NotNil(t, p.CreatedAt)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), *p.CreatedAt)
	})

	t.Run("should default missing items and accept unix timestamps", func(t *testing.T) {
		v := newVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"paid","refunded":true,"created_at":1767225600}`))
		}))

		p, err := v.Fetch(ctx, "INV-2")
		require.NoError(t, err)
		assert.False(t, p.IsPaid())
		assert.Equal(t, "refunded", p.RejectReason())
		assert.Equal(t, "Unknown", p.Product)
		assert.Equal(t, "Default", p.Variant)
		assert.Equal(t, int64(1767225600), p.CreatedAt.Unix())
	})

	t.Run("should map 404 to payment not found without retrying", func(t *testing.T) {
		var calls int32
		v := newVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := v.Fetch(ctx, "INV-404")
		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("should retry 5xx and fail as unavailable", func(t *testing.T) {
		var calls int32
		v := newVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := v.Fetch(ctx, "INV-3")
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("should reject malformed references before calling out", func(t *testing.T) {
		v := newVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("must not be called")
		}))
		_, err := v.Fetch(ctx, "../admin")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestNoopPaymentVerifier(t *testing.T) {
	v := NewNoopPaymentVerifier()
	_, err := v.Fetch(context.Background(), "X")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}
