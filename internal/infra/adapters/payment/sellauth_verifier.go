// File: internal/infra/adapters/payment/sellauth_verifier.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/infra/metrics"
	"telegram-entitlement-bot/internal/infra/retry"
)

var _ adapter.PaymentVerifier = (*SellAuthVerifier)(nil)

const service = "payment"

// SellAuthVerifier reads invoices from a SellAuth-style commerce API.
type SellAuthVerifier struct {
	baseURL string
	shopID  string
	apiKey  string
	client  *http.Client
	policy  retry.Policy
	log     zerolog.Logger
}

func NewSellAuthVerifier(cfg config.PaymentConfig, logger *zerolog.Logger) (*SellAuthVerifier, error) {
	if cfg.APIKey == "" || cfg.ShopID == "" {
		return nil, errors.New("payment api key and shop id are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid payment base url: %w", err)
	}
	return &SellAuthVerifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		shopID:  cfg.ShopID,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		policy:  retry.FromConfig(cfg.Retry),
		log:     logger.With().Str("component", "PaymentVerifier").Logger(),
	}, nil
}

type invoiceDTO struct {
	ID        json.RawMessage `json:"id"`
	Status    string          `json:"status"`
	Refunded  bool            `json:"refunded"`
	Cancelled bool            `json:"cancelled"`
	CreatedAt flexTime        `json:"created_at"`
	Items     []struct {
		Product struct {
			Name string `json:"name"`
		} `json:"product"`
		Variant struct {
			Name string `json:"name"`
		} `json:"variant"`
	} `json:"items"`
}

// flexTime accepts unix seconds or an RFC 3339 string.
type flexTime struct {
	t *time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(n, 0).UTC()
		f.t = &t
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05.000000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			f.t = &t
			return nil
		}
	}
	// Unknown format: leave unset rather than fail the whole invoice.
	return nil
}

func (d *invoiceDTO) purchase(ref string) *model.Purchase {
	p := &model.Purchase{
		Ref:       ref,
		Status:    d.Status,
		Refunded:  d.Refunded,
		Cancelled: d.Cancelled,
		Product:   "Unknown",
		Variant:   "Default",
		CreatedAt: d.CreatedAt.t,
	}
	if len(d.Items) > 0 {
		if n := strings.TrimSpace(d.Items[0].Product.Name); n != "" {
			p.Product = n
		}
		if n := strings.TrimSpace(d.Items[0].Variant.Name); n != "" {
			p.Variant = n
		}
	}
	return p
}

func (v *SellAuthVerifier) Fetch(ctx context.Context, purchaseRef string) (*model.Purchase, error) {
	ref, err := model.NormalizePurchaseRef(purchaseRef)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	var inv invoiceDTO
	err = retry.Do(ctx, v.policy, func(attempt int, delay time.Duration, err error) {
		metrics.IncUpstreamRetry(service)
		v.log.Warn().Err(err).Str("purchase_ref", ref).Int("attempt", attempt).Dur("delay", delay).Msg("retrying invoice fetch")
	}, func(ctx context.Context) error {
		return v.fetchOnce(ctx, ref, &inv)
	})
	err = classify(err)
	metrics.ObserveUpstream(service, "fetch", resultLabel(err), started)
	if err != nil {
		return nil, err
	}
	return inv.purchase(ref), nil
}

func (v *SellAuthVerifier) fetchOnce(ctx context.Context, ref string, out *invoiceDTO) error {
	u := fmt.Sprintf("%s/v1/shops/%s/invoices/%s", v.baseURL, url.PathEscape(v.shopID), url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return retry.Permanent(domain.ErrPaymentNotFound)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return retry.Permanent(fmt.Errorf("%w: decode invoice: %v", domain.ErrUpstreamRejected, err))
	}
	return nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrPaymentNotFound) || errors.Is(err, domain.ErrUpstreamRejected) {
		return err
	}
	var se *retry.StatusError
	if errors.As(err, &se) && !retry.Retryable(se) {
		return fmt.Errorf("%w: invoice fetch: %v", domain.ErrUpstreamRejected, err)
	}
	return fmt.Errorf("%w: invoice fetch: %v", domain.ErrUpstreamUnavailable, err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrPaymentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
