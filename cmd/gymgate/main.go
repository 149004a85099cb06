package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gymgate/gymgate/internal/admission"
	"github.com/gymgate/gymgate/internal/checkin"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/coverage"
	"github.com/gymgate/gymgate/internal/events"
	"github.com/gymgate/gymgate/internal/health"
	"github.com/gymgate/gymgate/internal/logger"
	"github.com/gymgate/gymgate/internal/member"
	"github.com/gymgate/gymgate/internal/metrics"
	"github.com/gymgate/gymgate/internal/migration"
	"github.com/gymgate/gymgate/internal/renewal"
	"github.com/gymgate/gymgate/internal/scheduler"
	"github.com/gymgate/gymgate/internal/server"
	"github.com/gymgate/gymgate/internal/square"
	"github.com/gymgate/gymgate/internal/systemlog"
	"github.com/gymgate/gymgate/internal/webhook"
	"github.com/gymgate/gymgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,
		health.Module,
		square.Module,

		systemlog.Module,
		member.Module,
		checkin.Module,
		coverage.Module,
		admission.Module,
		renewal.Module,
		events.Module,
		webhook.Module,
		scheduler.Module,

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
