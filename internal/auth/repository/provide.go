package repository

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tailorbook/internal/auth/domain"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Clock clock.Clock
	Redis *redis.Client `optional:"true"`
}

// Provide stores sessions in Redis when a client is configured.
func Provide(p Params) domain.SessionRepository {
	if p.Redis != nil {
		return NewRedisRepository(p.Redis)
	}
	return NewMemoryRepository(p.Clock)
}
