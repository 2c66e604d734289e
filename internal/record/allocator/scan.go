package allocator

import (
	"context"
	"strconv"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
)

// ScanAllocator derives the next serial from the highest serial currently
// stored. Allocation and persistence are not exclusive: two concurrent
// callers that scan before either persists receive the same serial, and the
// later write replaces the earlier one.
type ScanAllocator struct {
	store domain.Store
}

func NewScanAllocator(store domain.Store) *ScanAllocator {
	return &ScanAllocator{store: store}
}

func (a *ScanAllocator) Allocate(ctx context.Context, kind domain.Kind, persist func(identity string) error) (string, error) {
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

// NextSerial returns one more than the largest serial found in the kind's
// storage keys, or 1 when there are none. A candidate whose key is already
// listed is skipped.
func NextSerial(ctx context.Context, store domain.Store, kind domain.Kind) (uint64, error) {
	keys, err := store.Keys(ctx, kind)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		taken[key] = struct{}{}
	}

	next := maxSerial(keys) + 1
	for {
		if _, ok := taken[domain.StorageKey(kind, strconv.FormatUint(next, 10))]; !ok {
			return next, nil
		}
		next++
	}
}

// MaxSerial scans storage keys for the largest embedded serial. Keys without
// digits count as 0.
func MaxSerial(ctx context.Context, store domain.Store, kind domain.Kind) (uint64, error) {
	keys, err := store.Keys(ctx, kind)
	if err != nil {
		return 0, err
	}
	return maxSerial(keys), nil
}

func maxSerial(keys []string) uint64 {
	var max uint64
	for _, key := range keys {
		if serial := domain.SerialFromKey(key); serial > max {
			max = serial
		}
	}
	return max
}
