package allocator

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
)

// CounterAllocator seeds an in-process counter from a scan on first use and
// hands out increments afterwards. Serials skipped by a failed persist are
// not reused.
type CounterAllocator struct {
	store domain.Store

	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

func NewCounterAllocator(store domain.Store) *CounterAllocator {
	return &CounterAllocator{
		store:    store,
		counters: make(map[string]*atomic.Uint64),
	}
}

func (a *CounterAllocator) counter(ctx context.Context, kind domain.Kind) (*atomic.Uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.counters[kind.Name]; ok {
		return c, nil
	}
	max, err := MaxSerial(ctx, a.store, kind)
	if err != nil {
		return nil, err
	}
	c := &atomic.Uint64{}
	c.Store(max)
	a.counters[kind.Name] = c
	return c, nil
}

func (a *CounterAllocator) Allocate(ctx context.Context, kind domain.Kind, persist func(identity string) error) (string, error) {
	c, err := a.counter(ctx, kind)
	if err != nil {
		return "", err
	}

	for {
		identity := strconv.FormatUint(c.Add(1), 10)
		exists, err := a.store.Exists(ctx, kind, domain.StorageKey(kind, identity))
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		if err := persist(identity); err != nil {
			return "", err
		}
		return identity, nil
	}
}
