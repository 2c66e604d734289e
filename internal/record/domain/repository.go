package domain

import "context"

// Store persists whole documents per kind, addressed by storage key.
type Store interface {
	// List returns every stored document of a kind in storage order.
	List(ctx context.Context, kind Kind) ([]Document, error)
	// Keys returns the storage keys of a kind; a kind with no storage yet has none.
	Keys(ctx context.Context, kind Kind) ([]string, error)
	Read(ctx context.Context, kind Kind, key string) (Document, error)
	// Write creates or replaces the document at key.
	Write(ctx context.Context, kind Kind, key string, doc Document) error
	Delete(ctx context.Context, kind Kind, key string) error
	Exists(ctx context.Context, kind Kind, key string) (bool, error)
}

// Allocator assigns the identity of a new record and runs persist with it.
// Implementations decide how much of allocate-then-persist is exclusive.
type Allocator interface {
	Allocate(ctx context.Context, kind Kind, persist func(identity string) error) (string, error)
}

// ListRequest narrows and orders a listing. Both fields are optional.
type ListRequest struct {
	Query string
	Sort  string
}

// CreateResult reports where a newly created record was stored.
type CreateResult struct {
	Identity string
	Key      string
}
