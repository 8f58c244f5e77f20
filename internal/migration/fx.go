package migration

import (
	"github.com/microbooks/microbooks/internal/config"
	"github.com/microbooks/microbooks/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if err := Run(conn); err != nil {
			return err
		}
		if cfg.SeedDefaultEntity {
			return seed.EnsureDefaultEntity(conn)
		}
		return nil
	}),
)
