//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/infra/i18n"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func ptrTime(t time.Time) *time.Time { return &t }

func ptrStr(s string) *string { return &s }

// =============================
// Adapters
// =============================

// ---- Mock PaymentVerifier ----

type MockPayment struct {
	mu        sync.Mutex
	purchases map[string]*model.Purchase
	Calls     int

	FetchFunc func(ctx context.Context, ref string) (*model.Purchase, error)
}

var _ adapter.PaymentVerifier = (*MockPayment)(nil)

func NewMockPayment() *MockPayment {
	return &MockPayment{purchases: map[string]*model.Purchase{}}
}

// Paid registers a completed purchase created at createdAt.
func (m *MockPayment) Paid(ref, product, variant string, createdAt time.Time) {
	m.Put(&model.Purchase{Ref: ref, Status: "completed", Product: product, Variant: variant, CreatedAt: &createdAt})
}

func (m *MockPayment) Put(p *model.Purchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[p.Ref] = p
}

func (m *MockPayment) Fetch(ctx context.Context, ref string) (*model.Purchase, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[ref]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- Mock LicenseService ----

type MockLicense struct {
	mu    sync.Mutex
	byBen map[int64]*model.LicenseInfo
	now   func() time.Time

	Calls struct {
		CreateOrRefresh int
		Lookup          int
		Revoke          []string
		Extend          []int
		ResetDevice     []string
	}

	CreateOrRefreshFunc func(ctx context.Context, beneficiary int64, planLabel, note string) (*model.LicenseInfo, error)
	LookupFunc          func(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error)
	RevokeFunc          func(ctx context.Context, key string) (bool, error)
	ExtendFunc          func(ctx context.Context, key string, days int) (*model.ExtendResult, error)
	ResetDeviceFunc     func(ctx context.Context, key string) error
}

var _ adapter.LicenseService = (*MockLicense)(nil)

func NewMockLicense() *MockLicense {
	return &MockLicense{byBen: map[int64]*model.LicenseInfo{}, now: now}
}

// Seed stores a key for beneficiary. A nil expiry is a lifetime key.
func (m *MockLicense) Seed(beneficiary int64, key string, expiresAt *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byBen[beneficiary] = &model.LicenseInfo{Key: key, Beneficiary: beneficiary, ExpiresAt: expiresAt}
}

func (m *MockLicense) Get(beneficiary int64) (*model.LicenseInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byBen[beneficiary]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

func (m *MockLicense) CreateOrRefresh(ctx context.Context, beneficiary int64, planLabel, note string) (*model.LicenseInfo, error) {
	m.mu.Lock()
	m.Calls.CreateOrRefresh++
	m.mu.Unlock()
	if m.CreateOrRefreshFunc != nil {
		return m.CreateOrRefreshFunc(ctx, beneficiary, planLabel, note)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := model.PlanFromLabel(planLabel).ExpiresAt(m.now())
	l, ok := m.byBen[beneficiary]
	if !ok {
		l = &model.LicenseInfo{Key: "KEY-" + uuid.NewString(), Beneficiary: beneficiary, ExpiresAt: exp}
		m.byBen[beneficiary] = l
	} else if l.ExpiresAt != nil && (exp == nil || exp.After(*l.ExpiresAt)) {
		l.ExpiresAt = exp
	}
	l.Note = note
	cp := *l
	return &cp, nil
}

func (m *MockLicense) Lookup(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error) {
	m.mu.Lock()
	m.Calls.Lookup++
	m.mu.Unlock()
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, beneficiary)
	}
	if l, ok := m.Get(beneficiary); ok {
		return l, nil
	}
	return nil, domain.ErrNoLicense
}

func (m *MockLicense) Revoke(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	m.Calls.Revoke = append(m.Calls.Revoke, key)
	m.mu.Unlock()
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for ben, l := range m.byBen {
		if l.Key == key {
			delete(m.byBen, ben)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLicense) Extend(ctx context.Context, key string, days int) (*model.ExtendResult, error) {
	m.mu.Lock()
	m.Calls.Extend = append(m.Calls.Extend, days)
	m.mu.Unlock()
	if m.ExtendFunc != nil {
		return m.ExtendFunc(ctx, key, days)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.byBen {
		if l.Key != key {
			continue
		}
		if l.ExpiresAt == nil {
			return &model.ExtendResult{Lifetime: true}, nil
		}
		old := *l.ExpiresAt
		base := old
		if n := m.now(); n.After(base) {
			base = n
		}
		next := base.Add(time.Duration(days) * model.Day)
		l.ExpiresAt = &next
		return &model.ExtendResult{OldExpiry: &old, NewExpiry: ptrTime(next)}, nil
	}
	return nil, domain.ErrNoLicense
}

func (m *MockLicense) ResetDevice(ctx context.Context, key string) error {
	m.mu.Lock()
	m.Calls.ResetDevice = append(m.Calls.ResetDevice, key)
	m.mu.Unlock()
	if m.ResetDeviceFunc != nil {
		return m.ResetDeviceFunc(ctx, key)
	}
	return nil
}

func (m *MockLicense) Horizon(planLabel string) (time.Duration, bool) {
	return model.PlanHorizon(planLabel)
}

// ---- Mock PlatformBinding ----

type Notification struct {
	Beneficiary int64
	Message     string
}

type MockPlatform struct {
	mu       sync.Mutex
	Granted  []int64
	Revoked  []int64
	Notified []Notification

	GrantRoleFunc  func(ctx context.Context, beneficiary int64) error
	RevokeRoleFunc func(ctx context.Context, beneficiary int64) error
	NotifyFunc     func(ctx context.Context, beneficiary int64, message string) error
}

var _ adapter.PlatformBinding = (*MockPlatform)(nil)

func (m *MockPlatform) GrantRole(ctx context.Context, beneficiary int64) error {
	if m.GrantRoleFunc != nil {
		return m.GrantRoleFunc(ctx, beneficiary)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Granted = append(m.Granted, beneficiary)
	return nil
}

func (m *MockPlatform) RevokeRole(ctx context.Context, beneficiary int64) error {
	if m.RevokeRoleFunc != nil {
		return m.RevokeRoleFunc(ctx, beneficiary)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revoked = append(m.Revoked, beneficiary)
	return nil
}

func (m *MockPlatform) Notify(ctx context.Context, beneficiary int64, message string) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, beneficiary, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, Notification{Beneficiary: beneficiary, Message: message})
	return nil
}

func (m *MockPlatform) NotifiedTo(beneficiary int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.Notified {
		if n.Beneficiary == beneficiary {
			out = append(out, n.Message)
		}
	}
	return out
}

// =============================
// Repositories
// =============================

// ---- Mock RedemptionRepository ----

type MockRedemptionRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Redemption
	byRef map[string]string
	now   func() time.Time

	FindByPurchaseRefFunc func(ctx context.Context, tx repository.Tx, ref string) (*model.Redemption, error)
	ClaimFunc             func(ctx context.Context, tx repository.Tx, r *model.Redemption) error
	FinalizeFunc          func(ctx context.Context, tx repository.Tx, r *model.Redemption) error
	ListExpiredFunc       func(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Redemption, error)
	MarkInactiveFunc      func(ctx context.Context, tx repository.Tx, id string, now time.Time) (bool, error)
	HasOtherCoverageFunc  func(ctx context.Context, tx repository.Tx, beneficiary int64, excludeID string, now time.Time) (bool, error)
	StatsFunc             func(ctx context.Context, tx repository.Tx, now time.Time) (*model.RedemptionStats, error)
}

var _ repository.RedemptionRepository = (*MockRedemptionRepo)(nil)

func NewMockRedemptionRepo() *MockRedemptionRepo {
	return &MockRedemptionRepo{byID: map[string]*model.Redemption{}, byRef: map[string]string{}, now: now}
}

// Seed stores r as if it had been claimed and finalized.
func (r *MockRedemptionRepo) Seed(red *model.Redemption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *red
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.State == "" {
		cp.State = model.RedemptionStateGranted
	}
	r.byID[cp.ID] = &cp
	r.byRef[cp.PurchaseRef] = cp.ID
}

func (r *MockRedemptionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *MockRedemptionRepo) Get(id string) *model.Redemption {
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.byID[id]
	if !ok {
		return nil
	}
	cp := *red
	return &cp
}

func (r *MockRedemptionRepo) GetByRef(ref string) *model.Redemption {
	r.mu.Lock()
	id := r.byRef[ref]
	r.mu.Unlock()
	return r.Get(id)
}

func (r *MockRedemptionRepo) FindByPurchaseRef(ctx context.Context, tx repository.Tx, ref string) (*model.Redemption, error) {
	if r.FindByPurchaseRefFunc != nil {
		return r.FindByPurchaseRefFunc(ctx, tx, ref)
	}
	if red := r.GetByRef(ref); red != nil {
		return red, nil
	}
	return nil, domain.ErrNotFound
}

// Claim mirrors the unique index on purchase_ref.
func (r *MockRedemptionRepo) Claim(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	if r.ClaimFunc != nil {
		return r.ClaimFunc(ctx, tx, red)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byRef[red.PurchaseRef]; dup {
		return domain.ErrAlreadyRedeemed
	}
	cp := *red
	r.byID[cp.ID] = &cp
	r.byRef[cp.PurchaseRef] = cp.ID
	return nil
}

func (r *MockRedemptionRepo) Finalize(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	if r.FinalizeFunc != nil {
		return r.FinalizeFunc(ctx, tx, red)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[red.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *red
	cp.State = model.RedemptionStateGranted
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockRedemptionRepo) ListByBeneficiary(ctx context.Context, tx repository.Tx, beneficiary int64) ([]*model.Redemption, error) {
	return r.filter(func(red *model.Redemption) bool { return red.Beneficiary == beneficiary }), nil
}

func (r *MockRedemptionRepo) ListExpired(ctx context.Context, tx repository.Tx, at time.Time, limit int) ([]*model.Redemption, error) {
	if r.ListExpiredFunc != nil {
		return r.ListExpiredFunc(ctx, tx, at, limit)
	}
	out := r.filter(func(red *model.Redemption) bool {
		return red.Active && red.State == model.RedemptionStateGranted && red.ExpiresAt != nil && red.ExpiresAt.Before(at)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockRedemptionRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Redemption, error) {
	return r.filter(func(red *model.Redemption) bool {
		return red.Active && red.State == model.RedemptionStateGranted && red.ExpiresAt != nil &&
			!red.ExpiresAt.Before(from) && red.ExpiresAt.Before(to)
	}), nil
}

func (r *MockRedemptionRepo) MarkInactive(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if r.MarkInactiveFunc != nil {
		return r.MarkInactiveFunc(ctx, tx, id, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.byID[id]
	if !ok || !red.Active || red.ExpiresAt == nil || red.ExpiresAt.After(at) {
		return false, nil
	}
	red.Active = false
	red.DeactivatedAt = ptrTime(at)
	return true, nil
}

func (r *MockRedemptionRepo) DeactivateAll(ctx context.Context, tx repository.Tx, beneficiary int64, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, red := range r.byID {
		if red.Beneficiary == beneficiary && red.Active {
			red.Active = false
			red.DeactivatedAt = ptrTime(at)
			n++
		}
	}
	return n, nil
}

func (r *MockRedemptionRepo) HasOtherCoverage(ctx context.Context, tx repository.Tx, beneficiary int64, excludeID string, at time.Time) (bool, error) {
	if r.HasOtherCoverageFunc != nil {
		return r.HasOtherCoverageFunc(ctx, tx, beneficiary, excludeID, at)
	}
	others := r.filter(func(red *model.Redemption) bool {
		return red.Beneficiary == beneficiary && red.ID != excludeID && red.Active &&
			(red.ExpiresAt == nil || red.ExpiresAt.After(at))
	})
	return len(others) > 0, nil
}

func (r *MockRedemptionRepo) ExtendLatestActive(ctx context.Context, tx repository.Tx, beneficiary int64, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Redemption
	for _, red := range r.byID {
		if red.Beneficiary != beneficiary || !red.Active || red.ExpiresAt == nil {
			continue
		}
		if latest == nil || red.CreatedAt.After(latest.CreatedAt) {
			latest = red
		}
	}
	if latest == nil {
		return false, nil
	}
	latest.ExpiresAt = ptrTime(expiresAt)
	return true, nil
}

func (r *MockRedemptionRepo) Stats(ctx context.Context, tx repository.Tx, at time.Time) (*model.RedemptionStats, error) {
	if r.StatsFunc != nil {
		return r.StatsFunc(ctx, tx, at)
	}
	st := &model.RedemptionStats{ByVariant: map[string]int{}}
	for _, red := range r.filter(func(*model.Redemption) bool { return true }) {
		if red.State == model.RedemptionStatePending {
			st.Pending++
			continue
		}
		st.Total++
		st.ByVariant[red.Variant]++
		if red.Active {
			st.Active++
		}
		if red.CreatedAt.After(at.AddDate(0, 0, -30)) {
			st.LastMonth++
		}
		if red.CreatedAt.After(at.AddDate(0, 0, -7)) {
			st.LastWeek++
		}
	}
	return st, nil
}

func (r *MockRedemptionRepo) filter(keep func(*model.Redemption) bool) []*model.Redemption {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Redemption
	for _, red := range r.byID {
		if keep(red) {
			cp := *red
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ---- Mock BlacklistRepository ----

type MockBlacklistRepo struct {
	mu      sync.Mutex
	entries map[int64]*model.BlacklistEntry

	FindFunc func(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error)
}

var _ repository.BlacklistRepository = (*MockBlacklistRepo)(nil)

func NewMockBlacklistRepo() *MockBlacklistRepo {
	return &MockBlacklistRepo{entries: map[int64]*model.BlacklistEntry{}}
}

func (r *MockBlacklistRepo) Find(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error) {
	if r.FindFunc != nil {
		return r.FindFunc(ctx, tx, beneficiary)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[beneficiary]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockBlacklistRepo) Add(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Beneficiary]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *e
	r.entries[e.Beneficiary] = &cp
	return nil
}

func (r *MockBlacklistRepo) Remove(ctx context.Context, tx repository.Tx, beneficiary int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[beneficiary]; !ok {
		return false, nil
	}
	delete(r.entries, beneficiary)
	return true, nil
}

// ---- Mock ReferralRepository ----

type MockReferralRepo struct {
	mu          sync.Mutex
	codes       map[string]*model.ReferralCode
	usesByRefd  map[int64]*model.ReferralUse
	useOrder    []int64
	CreateCalls int

	CreateCodeFunc func(ctx context.Context, tx repository.Tx, c *model.ReferralCode) error
	InsertUseFunc  func(ctx context.Context, tx repository.Tx, u *model.ReferralUse) error
}

var _ repository.ReferralRepository = (*MockReferralRepo)(nil)

func NewMockReferralRepo() *MockReferralRepo {
	return &MockReferralRepo{codes: map[string]*model.ReferralCode{}, usesByRefd: map[int64]*model.ReferralUse{}}
}

func (r *MockReferralRepo) UseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.usesByRefd)
}

func (r *MockReferralRepo) Use(referred int64) *model.ReferralUse {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usesByRefd[referred]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *MockReferralRepo) FindCodeByOwner(ctx context.Context, tx repository.Tx, owner int64) (*model.ReferralCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Owner == owner {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockReferralRepo) FindCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codes[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockReferralRepo) CreateCode(ctx context.Context, tx repository.Tx, c *model.ReferralCode) error {
	r.mu.Lock()
	r.CreateCalls++
	r.mu.Unlock()
	if r.CreateCodeFunc != nil {
		return r.CreateCodeFunc(ctx, tx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[c.Code]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range r.codes {
		if existing.Owner == c.Owner {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	r.codes[c.Code] = &cp
	return nil
}

// InsertUse mirrors the unique index on referred.
func (r *MockReferralRepo) InsertUse(ctx context.Context, tx repository.Tx, u *model.ReferralUse) error {
	if r.InsertUseFunc != nil {
		return r.InsertUseFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usesByRefd[u.Referred]; ok {
		return domain.ErrReferralAlreadyUsed
	}
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.usesByRefd[u.Referred] = &cp
	r.useOrder = append(r.useOrder, u.Referred)
	return nil
}

func (r *MockReferralRepo) IncrementUses(ctx context.Context, tx repository.Tx, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return domain.ErrNotFound
	}
	c.Uses++
	return nil
}

func (r *MockReferralRepo) RecordBonus(ctx context.Context, tx repository.Tx, referred int64, days int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usesByRefd[referred]
	if !ok {
		return domain.ErrNotFound
	}
	u.BonusDaysAwarded = days
	return nil
}

func (r *MockReferralRepo) FindUseByReferred(ctx context.Context, tx repository.Tx, referred int64) (*model.ReferralUse, error) {
	if u := r.Use(referred); u != nil {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockReferralRepo) ListUsesByReferrer(ctx context.Context, tx repository.Tx, referrer int64) ([]*model.ReferralUse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ReferralUse
	for _, id := range r.useOrder {
		if u := r.usesByRefd[id]; u.Referrer == referrer {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockReferralRepo) ListRecentUses(ctx context.Context, tx repository.Tx, limit int) ([]*model.ReferralUse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ReferralUse
	for i := len(r.useOrder) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.usesByRefd[r.useOrder[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
	TTLs  map[string]time.Duration // last ttl requested per key
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}, TTLs: map[string]time.Duration{}}
}

// Hold marks key as owned by another instance.
func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "other"
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.TTLs[key] = ttl
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLockHeld
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

func (l *MockLocker) IsHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestTranslator builds a translator over an in-memory catalog so message
// assertions do not depend on the shipped wording.
func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {Data: []byte(`
expired_notice: "expired"
revoked_notice: "revoked"
expiry_reminder: "reminder %s %s %d"
referral_bonus_notice: "bonus %s %d %s"
time_added_notice: "added %d %s"
`)},
	}
	translator, _ := i18n.NewTranslator(testFS, "en")
	return translator
}
