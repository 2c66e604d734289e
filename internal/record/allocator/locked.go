package allocator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"go.uber.org/zap"
)

// LockedAllocator holds a per-kind lock across scan and persist so serials
// are unique within the process. With a Locker it also serialises across
// processes sharing the same store.
type LockedAllocator struct {
	store   domain.Store
	locker  *Locker
	lockTTL time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	kinds map[string]*sync.Mutex
}

func NewLockedAllocator(store domain.Store, locker *Locker, lockTTL time.Duration, log *zap.Logger) *LockedAllocator {
	if log == nil {
		log = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &LockedAllocator{
		store:   store,
		locker:  locker,
		lockTTL: lockTTL,
		log:     log,
		kinds:   make(map[string]*sync.Mutex),
	}
}

func (a *LockedAllocator) kindMutex(kind domain.Kind) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.kinds[kind.Name]
	if !ok {
		m = &sync.Mutex{}
		a.kinds[kind.Name] = m
	}
	return m
}

func (a *LockedAllocator) Allocate(ctx context.Context, kind domain.Kind, persist func(identity string) error) (string, error) {
	m := a.kindMutex(kind)
	m.Lock()
	defer m.Unlock()

	if a.locker != nil {
		ls, err := a.locker.acquire(ctx, kind.Name, a.lockTTL, a.lockTTL)
		if err != nil {
			return "", err
		}
		defer func() {
			if err := ls.release(context.WithoutCancel(ctx)); err != nil {
				a.log.Warn("failed to release serial lock", zap.String("kind", kind.Name), zap.Error(err))
			}
		}()
	}

	next, err := NextSerial(ctx, a.store, kind)
	if err != nil {
		return "", err
	}
	identity := strconv.FormatUint(next, 10)
	if err := persist(identity); err != nil {
		return "", err
	}
	return identity, nil
}
