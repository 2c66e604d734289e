package bill

import (
	"github.com/smallbiznis/tailorbook/internal/bill/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bill.service",
	fx.Provide(service.New),
)
