package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/clock"
	"github.com/smallbiznis/lotbid/internal/config"
	"github.com/smallbiznis/lotbid/internal/migration"
	"github.com/smallbiznis/lotbid/internal/observability"
	"github.com/smallbiznis/lotbid/internal/server"
	"github.com/smallbiznis/lotbid/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Settlement domains and the HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
