package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/neurogarden-backend/internal/platform/redisx"
)

// Leaser extends per-item exclusion beyond one process. Acquire returns ErrAlreadyRunning
// when wait is false and another holder owns key.
type Leaser interface {
	Acquire(ctx context.Context, key string, wait bool) (release func(), err error)
}

type redisLeaser struct {
	locker *redisx.LeaseLocker
}

func NewRedisLeaser(locker *redisx.LeaseLocker) Leaser {
	return &redisLeaser{locker: locker}
}

func (l *redisLeaser) Acquire(ctx context.Context, key string, wait bool) (func(), error) {
	var (
		lease *redisx.Lease
		err   error
	)
	if wait {
		lease, err = l.locker.Acquire(ctx, key)
	} else {
		lease, err = l.locker.TryAcquire(ctx, key)
	}
	if errors.Is(err, redisx.ErrLeaseHeld) {
		return nil, ErrAlreadyRunning
	}
	if err != nil {
		return nil, fmt.Errorf("enrichment lease: %w", err)
	}
	return func() {
		// Release on a fresh context: the request context may already be cancelled.
		_ = lease.Release(context.Background())
	}, nil
}
