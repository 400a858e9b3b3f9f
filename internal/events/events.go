package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nats-io/nats.go"
	"github.com/smallbiznis/lotbid/internal/config"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	TypeLotAwarded    = "lot.awarded"
	TypeOfferAccepted = "offer.accepted"
)

// Event is a settlement notification for downstream consumers (outreach, PO intake).
type Event struct {
	Type       string            `json:"type"`
	LotID      snowflake.ID      `json:"lot_id"`
	RoundID    snowflake.ID      `json:"round_id,omitempty"`
	OfferID    snowflake.ID      `json:"offer_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    datatypes.JSONMap `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subject builds the NATS subject for an event type.
func Subject(prefix, eventType string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

type natsPublisher struct {
	conn     *nats.Conn
	prefix   string
	settings *config.SettlementConfigHolder
	log      *zap.Logger
}

// New returns a NATS publisher, or a noop one when NATS is not configured.
func New(conn *nats.Conn, cfg config.Config, settings *config.SettlementConfigHolder, log *zap.Logger) Publisher {
	if conn == nil {
		return Noop{}
	}
	return &natsPublisher{
		conn:     conn,
		prefix:   cfg.EventSubjectPrefix,
		settings: settings,
		log:      log.Named("events.publisher"),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	if !p.settings.Get().PublishEvents {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := Subject(p.prefix, event.Type)
	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.log.Debug("published settlement event",
		zap.String("subject", subject),
		zap.String("lot_id", event.LotID.String()),
	)
	return nil
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
