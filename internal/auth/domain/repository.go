package domain

import (
	"context"
	"time"
)

// SessionRepository persists sessions keyed by token hash.
type SessionRepository interface {
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Find(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
}
