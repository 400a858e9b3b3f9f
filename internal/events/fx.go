package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/smallbiznis/lotbid/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewConn),
	fx.Provide(New),
)

// NewConn returns nil when no NATS URL is configured.
func NewConn(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		log.Info("nats not configured, settlement events disabled")
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.AppName),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Drain()
		},
	})
	return conn, nil
}
