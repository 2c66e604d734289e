package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tailorbook/internal/auth/domain"
)

const keySession = "tailorbook:session:"

// RedisRepository shares sessions between processes; Redis expires them.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keySession+session.TokenHash, raw, ttl).Err()
}

func (r *RedisRepository) Find(ctx context.Context, tokenHash string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, keySession+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *RedisRepository) Delete(ctx context.Context, tokenHash string) error {
	return r.client.Del(ctx, keySession+tokenHash).Err()
}
