package repository

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/tailorbook/internal/auth/domain"
	"github.com/smallbiznis/tailorbook/internal/clock"
)

// MemoryRepository keeps sessions in process; they are lost on restart.
type MemoryRepository struct {
	clock clock.Clock

	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemoryRepository(c clock.Clock) *MemoryRepository {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &MemoryRepository{clock: c, sessions: make(map[string]domain.Session)}
}

func (r *MemoryRepository) Save(_ context.Context, session domain.Session, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = session
	r.pruneLocked()
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (r *MemoryRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *MemoryRepository) pruneLocked() {
	now := r.clock.Now()
	for hash, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, hash)
		}
	}
}
