package allocator

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Store domain.Store
	Log   *zap.Logger
	Redis *redis.Client `optional:"true"`
}

// Provide builds the allocator selected by RECORDS_SERIAL_STRATEGY.
func Provide(p Params) (domain.Allocator, error) {
	log := p.Log.Named("record.allocator")

	switch p.Cfg.Records.SerialStrategy {
	case config.SerialStrategyScan, "":
		log.Info("serial allocation by scan")
		return NewScanAllocator(p.Store), nil
	case config.SerialStrategyLocked:
		var locker *Locker
		if p.Redis != nil {
			locker = NewLocker(p.Redis)
		}
		log.Info("serial allocation under lock", zap.Bool("distributed", locker != nil))
		return NewLockedAllocator(p.Store, locker, p.Cfg.Redis.LockTTL, log), nil
	case config.SerialStrategyCounter:
		log.Info("serial allocation by in-process counter")
		return NewCounterAllocator(p.Store), nil
	default:
		return nil, fmt.Errorf("unsupported serial strategy %q", p.Cfg.Records.SerialStrategy)
	}
}
