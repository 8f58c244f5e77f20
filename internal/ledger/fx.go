package ledger

import (
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	"github.com/microbooks/microbooks/internal/ledger/service"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(
		service.NewService,
		func(svc ledgerdomain.Service) txndomain.Poster { return svc },
	),
)
