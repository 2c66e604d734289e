package allocator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	serialLockPrefix = "tailorbook:serial:"
	lockPollInterval = 25 * time.Millisecond
)

// compare-and-delete so an expired lease taken over by another process is
// left alone.
var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var (
	ErrLockTimeout     = errors.New("serial lock not acquired")
	errLockUnavailable = errors.New("serial lock client not configured")
)

// Locker hands out per-kind leases on a shared Redis.
type Locker struct {
	client redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

type lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *lease) release(ctx context.Context) error {
	return releaseLease.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

func (l *Locker) tryAcquire(ctx context.Context, kind string, ttl time.Duration) (*lease, error) {
	if l == nil || l.client == nil {
		return nil, errLockUnavailable
	}
	ls := &lease{client: l.client, key: serialLockPrefix + kind, token: uuid.NewString()}
	ok, err := l.client.SetNX(ctx, ls.key, ls.token, ttl).Result()
	if err != nil || !ok {
		return nil, err
	}
	return ls, nil
}

// acquire polls until the lease for kind is held. It gives up with
// ErrLockTimeout after wait, or with the context error.
func (l *Locker) acquire(ctx context.Context, kind string, ttl, wait time.Duration) (*lease, error) {
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	timeout := time.NewTimer(wait)
	defer timeout.Stop()
	tick := time.NewTicker(lockPollInterval)
	defer tick.Stop()

	for {
		ls, err := l.tryAcquire(ctx, kind, ttl)
		if err != nil {
			return nil, err
		}
		if ls != nil {
			return ls, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, ErrLockTimeout
		case <-tick.C:
		}
	}
}
