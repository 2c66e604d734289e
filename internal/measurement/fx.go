package measurement

import (
	"github.com/smallbiznis/tailorbook/internal/measurement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("measurement.service",
	fx.Provide(service.New),
)
