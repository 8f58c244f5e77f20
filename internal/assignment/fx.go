package assignment

import (
	"github.com/microbooks/microbooks/internal/assignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assignment.service",
	fx.Provide(service.NewService),
)
