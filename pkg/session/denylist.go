package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:denylist:"

// Denylist records revoked token ids until they would have expired anyway.
// Revocations seen by this instance are also kept in a local cache so the
// middleware does not hit redis for them again.
type Denylist struct {
	rdb   *redis.Client
	local *cache.Cache
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{
		rdb:   rdb,
		local: cache.New(time.Hour, 10*time.Minute),
	}
}

func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	d.local.Set(jti, struct{}{}, ttl)
	if d.rdb == nil {
		return nil
	}
	return d.rdb.Set(ctx, denylistPrefix+jti, 1, ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if _, found := d.local.Get(jti); found {
		return true, nil
	}
	if d.rdb == nil {
		return false, nil
	}

	n, err := d.rdb.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if ttl, err := d.rdb.TTL(ctx, denylistPrefix+jti).Result(); err == nil && ttl > 0 {
		d.local.Set(jti, struct{}{}, ttl)
	}
	return true, nil
}
