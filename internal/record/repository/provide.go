package repository

import (
	"fmt"

	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/migration"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/pkg/db"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lc    fx.Lifecycle
	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock `optional:"true"`
}

// Provide builds the store selected by RECORDS_STORE.
func Provide(p Params) (domain.Store, error) {
	log := p.Log.Named("record.store")

	switch p.Cfg.Records.Store {
	case config.StoreFile, "":
		log.Info("using file record store", zap.String("dir", p.Cfg.Records.Dir))
		return NewFileStore(afero.NewOsFs(), p.Cfg.Records.Dir), nil
	case config.StoreMemory:
		log.Warn("using in-memory record store, records are lost on restart")
		return NewFileStore(afero.NewMemMapFs(), "/"), nil
	case config.StoreDatabase:
		conn, err := db.Open(p.Lc, p.Cfg, log)
		if err != nil {
			return nil, err
		}
		if driver, _ := db.Driver(p.Cfg.DBType); driver == db.Postgres {
			sqlDB, err := conn.DB()
			if err != nil {
				return nil, err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return nil, err
			}
		}
		log.Info("using database record store", zap.String("type", p.Cfg.DBType))
		return NewGormStore(conn, p.Clock)
	default:
		return nil, fmt.Errorf("unsupported record store %q", p.Cfg.Records.Store)
	}
}
