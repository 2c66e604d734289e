package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tailorbook/internal/cache"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/observability"
	"github.com/smallbiznis/tailorbook/internal/server"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(RegisterSnowflake),
		cache.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

// RegisterSnowflake builds the node used for snowflake bill numbers.
func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
