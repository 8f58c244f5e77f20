package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/microbooks/microbooks/internal/clock"
	"github.com/microbooks/microbooks/internal/config"
	"github.com/microbooks/microbooks/internal/logger"
	"github.com/microbooks/microbooks/internal/migration"
	"github.com/microbooks/microbooks/internal/server"
	"github.com/microbooks/microbooks/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)

	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
