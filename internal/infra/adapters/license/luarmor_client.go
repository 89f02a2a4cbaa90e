// File: internal/infra/adapters/license/luarmor_client.go
package license

import (
	"bytes"
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
	"golang.org/x/time/rate"

	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/infra/metrics"
	"telegram-entitlement-bot/internal/infra/retry"
)

var _ adapter.LicenseService = (*Client)(nil)

// neverExpires is the provider's auth_expire sentinel.
const neverExpires int64 = -1

const service = "license"

// Client talks to a Luarmor-style whitelist API:
// /v3/projects/{project}/users keyed by user_key or by the linked identity.
type Client struct {
	baseURL string
	project string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	now     func() time.Time
	log     zerolog.Logger
}

func NewClient(cfg config.LicenseConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.ProjectID == "" {
		return nil, errors.New("license api key and project id are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid license base url: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		project: cfg.ProjectID,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		policy:  retry.FromConfig(cfg.Retry),
		now:     time.Now,
		log:     logger.With().Str("component", "LicenseClient").Logger(),
	}, nil
}

type userDTO struct {
	UserKey    string `json:"user_key"`
	LinkedID   string `json:"linked_id"`
	AuthExpire int64  `json:"auth_expire"`
	Identifier string `json:"identifier"`
	Note       string `json:"note"`
	Banned     int    `json:"banned"`
}

type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	UserKey string    `json:"user_key"`
	Users   []userDTO `json:"users"`
}

func (u userDTO) info() *model.LicenseInfo {
	li := &model.LicenseInfo{
		Key:      u.UserKey,
		DeviceID: u.Identifier,
		Note:     u.Note,
		Banned:   u.Banned != 0,
	}
	if id, err := strconv.ParseInt(u.LinkedID, 10, 64); err == nil {
		li.Beneficiary = id
	}
	li.ExpiresAt = fromAuthExpire(u.AuthExpire)
	return li
}

// fromAuthExpire maps the sentinel (and a missing value) to nil.
func fromAuthExpire(v int64) *time.Time {
	if v <= 0 {
		return nil
	}
	t := time.Unix(v, 0).UTC()
	return &t
}

func toAuthExpire(t *time.Time) int64 {
	if t == nil {
		return neverExpires
	}
	return t.Unix()
}

// Horizon delegates to the shared plan mapping so the key and the ledger agree.
func (c *Client) Horizon(planLabel string) (time.Duration, bool) {
	return model.PlanHorizon(planLabel)
}

func (c *Client) Lookup(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error) {
	var out *model.LicenseInfo
	err := c.do(ctx, "lookup", func(ctx context.Context) error {
		u, err := c.findBy(ctx, "linked_id", strconv.FormatInt(beneficiary, 10))
		if err != nil {
			return err
		}
		out = u.info()
		return nil
	})
	return out, err
}

// CreateOrRefresh re-reads the beneficiary on every attempt, so a create whose
// response was lost turns into a refresh on retry instead of a second key.
func (c *Client) CreateOrRefresh(ctx context.Context, beneficiary int64, planLabel, note string) (*model.LicenseInfo, error) {
	plan := model.PlanFromLabel(planLabel)
	var out *model.LicenseInfo
	err := c.do(ctx, "create_or_refresh", func(ctx context.Context) error {
		linked := strconv.FormatInt(beneficiary, 10)
		computed := plan.ExpiresAt(c.now())

		existing, err := c.findBy(ctx, "linked_id", linked)
		switch {
		case err == nil:
			cur := existing.info()
			exp := laterExpiry(cur.ExpiresAt, computed)
			body := map[string]any{"user_key": existing.UserKey, "auth_expire": toAuthExpire(exp)}
			if note != "" {
				body["note"] = note
			}
			if _, err := c.call(ctx, http.MethodPatch, c.usersURL(nil), body); err != nil {
				return err
			}
			cur.ExpiresAt = exp
			if note != "" {
				cur.Note = note
			}
			out = cur
			return nil
		case errors.Is(err, domain.ErrNoLicense):
			body := map[string]any{"linked_id": linked, "auth_expire": toAuthExpire(computed)}
			if note != "" {
				body["note"] = note
			}
			env, err := c.call(ctx, http.MethodPost, c.usersURL(nil), body)
			if err != nil {
				return err
			}
			if env.UserKey == "" {
				return retry.Permanent(fmt.Errorf("%w: create returned no key", domain.ErrUpstreamRejected))
			}
			out = &model.LicenseInfo{Key: env.UserKey, Beneficiary: beneficiary, ExpiresAt: computed, Note: note}
			return nil
		default:
			return err
		}
	})
	return out, err
}

// laterExpiry never shortens a key; nil (never) dominates.
func laterExpiry(current, computed *time.Time) *time.Time {
	if current == nil || computed == nil {
		return nil
	}
	if current.After(*computed) {
		return current
	}
	return computed
}

func (c *Client) Revoke(ctx context.Context, key string) (bool, error) {
	var removed bool
	err := c.do(ctx, "revoke", func(ctx context.Context) error {
		_, err := c.call(ctx, http.MethodDelete, c.usersURL(url.Values{"user_key": {key}}), nil)
		var se *retry.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			removed = false
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

// Extend adds days on top of the later of now and the current expiry. The
// target is computed once from a single read; retries only resend the PATCH
// with that absolute auth_expire, so a lost response never credits twice.
func (c *Client) Extend(ctx context.Context, key string, days int) (*model.ExtendResult, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var u *userDTO
	err := c.do(ctx, "extend_read", func(ctx context.Context) error {
		found, err := c.findBy(ctx, "user_key", key)
		if err != nil {
			return err
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	old := fromAuthExpire(u.AuthExpire)
	if old == nil {
		return &model.ExtendResult{Lifetime: true}, nil
	}
	base := c.now()
	if old.After(base) {
		base = *old
	}
	next := base.Add(time.Duration(days) * model.Day).UTC()
	body := map[string]any{"user_key": key, "auth_expire": next.Unix()}

	err = c.do(ctx, "extend", func(ctx context.Context) error {
		_, err := c.call(ctx, http.MethodPatch, c.usersURL(nil), body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &model.ExtendResult{OldExpiry: old, NewExpiry: &next}, nil
}

func (c *Client) ResetDevice(ctx context.Context, key string) error {
	return c.do(ctx, "reset_device", func(ctx context.Context) error {
		_, err := c.call(ctx, http.MethodPost, c.baseURL+"/v3/projects/"+c.project+"/users/resethwid",
			map[string]any{"user_key": key})
		return err
	})
}

func (c *Client) usersURL(q url.Values) string {
	u := c.baseURL + "/v3/projects/" + c.project + "/users"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) findBy(ctx context.Context, field, value string) (*userDTO, error) {
	env, err := c.call(ctx, http.MethodGet, c.usersURL(url.Values{field: {value}}), nil)
	var se *retry.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, retry.Permanent(domain.ErrNoLicense)
	}
	if err != nil {
		return nil, err
	}
	if len(env.Users) == 0 {
		return nil, retry.Permanent(domain.ErrNoLicense)
	}
	return &env.Users[0], nil
}

// call performs one request. Non-2xx answers come back as *retry.StatusError.
func (c *Client) call(ctx context.Context, method, u string, body any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.StatusError{Code: resp.StatusCode, Body: snippet(raw)}
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: decode: %v", domain.ErrUpstreamRejected, err))
		}
	}
	if !env.Success && method != http.MethodGet {
		return nil, retry.Permanent(fmt.Errorf("%w: %s", domain.ErrUpstreamRejected, env.Message))
	}
	return &env, nil
}

// do applies retry, metrics and the boundary error mapping.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	started := time.Now()
	err := retry.Do(ctx, c.policy, func(attempt int, delay time.Duration, err error) {
		metrics.IncUpstreamRetry(service)
		c.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("delay", delay).Msg("retrying license call")
	}, fn)
	err = classify(op, err)
	metrics.ObserveUpstream(service, op, resultLabel(err), started)
	return err
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNoLicense),
		errors.Is(err, domain.ErrUpstreamRejected),
		errors.Is(err, domain.ErrInvalidArgument):
		return err
	}
	var se *retry.StatusError
	if errors.As(err, &se) && !retry.Retryable(se) {
		return fmt.Errorf("%w: license %s: %v", domain.ErrUpstreamRejected, op, err)
	}
	return fmt.Errorf("%w: license %s: %v", domain.ErrUpstreamUnavailable, op, err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoLicense):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
