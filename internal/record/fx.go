package record

import (
	"github.com/smallbiznis/tailorbook/internal/record/allocator"
	"github.com/smallbiznis/tailorbook/internal/record/repository"
	"github.com/smallbiznis/tailorbook/internal/record/schema"
	"go.uber.org/fx"
)

var Module = fx.Module("record",
	fx.Provide(repository.Provide),
	fx.Provide(allocator.Provide),
	fx.Provide(schema.NewValidator),
)
