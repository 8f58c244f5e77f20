package entity

import (
	"github.com/microbooks/microbooks/internal/entity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entity.service",
	fx.Provide(service.NewService),
)
