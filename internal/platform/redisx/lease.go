package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLeaseHeld is returned by TryAcquire when another holder owns the key.
var ErrLeaseHeld = errors.New("redis lease held by another owner")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// LeaseLocker hands out expiring, owner-checked leases on string keys.
type LeaseLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

func NewLeaseLocker(rdb *redis.Client, prefix string, ttl time.Duration) *LeaseLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LeaseLocker{rdb: rdb, prefix: prefix, ttl: ttl, poll: 200 * time.Millisecond}
}

// Lease is a held key; Release is safe to call once the TTL has already lapsed.
type Lease struct {
	locker *LeaseLocker
	key    string
	token  string
}

func (l *LeaseLocker) TryAcquire(ctx context.Context, key string) (*Lease, error) {
	full := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	return &Lease{locker: l, key: full, token: token}, nil
}

// Acquire polls until the lease is granted or ctx is done.
func (l *LeaseLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		lease, err := l.TryAcquire(ctx, key)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, ErrLeaseHeld) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (le *Lease) Release(ctx context.Context) error {
	if le == nil || le.locker == nil {
		return nil
	}
	return releaseScript.Run(ctx, le.locker.rdb, []string{le.key}, le.token).Err()
}
