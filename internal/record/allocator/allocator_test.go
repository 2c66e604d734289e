package allocator

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/internal/record/repository"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, kind domain.Kind, keys ...string) domain.Store {
	t.Helper()
	store := repository.NewFileStore(afero.NewMemMapFs(), "/data")
	for _, key := range keys {
		require.NoError(t, store.Write(context.Background(), kind, key, domain.Document{}))
	}
	return store
}

func persistTo(store domain.Store, kind domain.Kind) func(identity string) error {
	return func(identity string) error {
		return store.Write(context.Background(), kind, domain.StorageKey(kind, identity), domain.Document{
			kind.IdentityField: identity,
		})
	}
}

// barrierStore holds the first n Keys calls until all n have arrived.
type barrierStore struct {
	domain.Store
	wg   sync.WaitGroup
	mu   sync.Mutex
	left int
}

func newBarrierStore(inner domain.Store, n int) *barrierStore {
	b := &barrierStore{Store: inner, left: n}
	b.wg.Add(n)
	return b
}

func (b *barrierStore) Keys(ctx context.Context, kind domain.Kind) ([]string, error) {
	keys, err := b.Store.Keys(ctx, kind)
	b.mu.Lock()
	wait := b.left > 0
	if wait {
		b.left--
		b.wg.Done()
	}
	b.mu.Unlock()
	if wait {
		b.wg.Wait()
	}
	return keys, err
}

func TestNextSerial(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want uint64
	}{
		{name: "empty", want: 1},
		{name: "gaps", keys: []string{"measurement_3.json", "measurement_7.json", "measurement_x.json"}, want: 8},
		{name: "non numeric only", keys: []string{"measurement_abc.json"}, want: 1},
		{name: "ordering irrelevant", keys: []string{"measurement_10.json", "measurement_9.json"}, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, domain.Measurement, tt.keys...)
			got, err := NextSerial(context.Background(), store, domain.Measurement)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanAllocatorAssignsNextSerial(t *testing.T) {
	store := newStore(t, domain.Measurement, "measurement_3.json", "measurement_7.json")
	alloc := NewScanAllocator(store)

	id, err := alloc.Allocate(context.Background(), domain.Measurement, persistTo(store, domain.Measurement))
	require.NoError(t, err)
	assert.Equal(t, "8", id)

	exists, err := store.Exists(context.Background(), domain.Measurement, "measurement_8.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestScanAllocatorPropagatesPersistError(t *testing.T) {
	store := newStore(t, domain.Measurement)
	alloc := NewScanAllocator(store)
	boom := errors.New("disk full")

	_, err := alloc.Allocate(context.Background(), domain.Measurement, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestScanAllocatorConcurrentCreatesCollide(t *testing.T) {
	inner := newStore(t, domain.Measurement)
	store := newBarrierStore(inner, 2)
	alloc := NewScanAllocator(store)

	ids := make([]string, 2)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := alloc.Allocate(context.Background(), domain.Measurement, persistTo(inner, domain.Measurement))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"1", "1"}, ids)
	keys, err := inner.Keys(context.Background(), domain.Measurement)
	require.NoError(t, err)
	assert.Equal(t, []string{"measurement_1.json"}, keys)
}

func TestLockedAllocatorSerialisesConcurrentCreates(t *testing.T) {
	store := newStore(t, domain.Bill)
	alloc := NewLockedAllocator(store, nil, 0, nil)

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := alloc.Allocate(context.Background(), domain.Bill, persistTo(store, domain.Bill))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, sequence(n), sortNumeric(ids))
}

func TestCounterAllocatorSeedsFromStore(t *testing.T) {
	store := newStore(t, domain.Measurement, "measurement_5.json")
	alloc := NewCounterAllocator(store)

	const n = 10
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := alloc.Allocate(context.Background(), domain.Measurement, persistTo(store, domain.Measurement))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	want := make([]string, 0, n)
	for i := 6; i < 6+n; i++ {
		want = append(want, strconv.Itoa(i))
	}
	assert.Equal(t, want, sortNumeric(ids))
}

func TestCounterAllocatorSkipsExternallyWrittenSerials(t *testing.T) {
	store := newStore(t, domain.Measurement, "measurement_1.json")
	alloc := NewCounterAllocator(store)
	persist := persistTo(store, domain.Measurement)

	id, err := alloc.Allocate(context.Background(), domain.Measurement, persist)
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	require.NoError(t, persist("3"))

	id, err = alloc.Allocate(context.Background(), domain.Measurement, persist)
	require.NoError(t, err)
	assert.Equal(t, "4", id)
}

func sequence(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func sortNumeric(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i])
		b, _ := strconv.Atoi(out[j])
		return a < b
	})
	return out
}

func TestLockerWithoutClient(t *testing.T) {
	assert.Nil(t, NewLocker(nil))

	var l *Locker
	_, err := l.acquire(context.Background(), "bill", time.Second, time.Millisecond)
	assert.ErrorIs(t, err, errLockUnavailable)
}
