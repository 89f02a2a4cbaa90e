//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	red "telegram-entitlement-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerBlacklistRepo struct {
	FindFunc   func(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error)
	AddFunc    func(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error
	RemoveFunc func(ctx context.Context, tx repository.Tx, beneficiary int64) (bool, error)
}

func (m *mockInnerBlacklistRepo) Find(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error) {
	return m.FindFunc(ctx, tx, beneficiary)
}
func (m *mockInnerBlacklistRepo) Add(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	return m.AddFunc(ctx, tx, e)
}
func (m *mockInnerBlacklistRepo) Remove(ctx context.Context, tx repository.Tx, beneficiary int64) (bool, error) {
	return m.RemoveFunc(ctx, tx, beneficiary)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
