package period

import (
	"github.com/microbooks/microbooks/internal/period/service"
	"go.uber.org/fx"
)

var Module = fx.Module("period.service",
	fx.Provide(service.NewService),
)
