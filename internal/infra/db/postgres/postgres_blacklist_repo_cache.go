package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/infra/metrics"
	red "telegram-entitlement-bot/internal/infra/redis"
)

var _ repository.BlacklistRepository = (*blacklistRepoCacheDecorator)(nil)

type blacklistRepoCacheDecorator struct {
	inner repository.BlacklistRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewBlacklistRepoCacheDecorator(inner repository.BlacklistRepository, cache red.RedisClient, ttl time.Duration) repository.BlacklistRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &blacklistRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func blacklistKey(beneficiary int64) string { return fmt.Sprintf("blacklist:%d", beneficiary) }

// Find caches entries only. A miss is never cached: a negative written after a
// concurrent Add has invalidated would hide the new entry for the whole TTL.
func (d *blacklistRepoCacheDecorator) Find(ctx context.Context, tx repository.Tx, beneficiary int64) (*model.BlacklistEntry, error) {
	key := blacklistKey(beneficiary)
	// Reads inside a transaction must see the transaction's view.
	if tx == nil {
		val, err := d.cache.Get(ctx, key)
		if err == nil {
			var e model.BlacklistEntry
			if json.Unmarshal([]byte(val), &e) == nil {
				metrics.IncCacheRequest("blacklist", "hit")
				return &e, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			metrics.IncCacheRequest("blacklist", "error")
		}
	}

	metrics.IncCacheRequest("blacklist", "miss")
	e, err := d.inner.Find(ctx, tx, beneficiary)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		return e, nil
	}
	if b, mErr := json.Marshal(e); mErr == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return e, nil
}

func (d *blacklistRepoCacheDecorator) Add(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	err := d.inner.Add(ctx, tx, e)
	_ = d.cache.Del(ctx, blacklistKey(e.Beneficiary))
	return err
}

func (d *blacklistRepoCacheDecorator) Remove(ctx context.Context, tx repository.Tx, beneficiary int64) (bool, error) {
	removed, err := d.inner.Remove(ctx, tx, beneficiary)
	_ = d.cache.Del(ctx, blacklistKey(beneficiary))
	return removed, err
}
