package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem   ActorType = "system"
	ActorTypeOperator ActorType = "operator"
	ActorTypeBuyer    ActorType = "buyer"
)

const (
	ActionRoundOpen     = "round.open"
	ActionRoundClose    = "round.close"
	ActionOptimizerRun  = "lot.optimizer.run"
	ActionTakeAllAccept = "offer.take_all.accept"
	ActionTakeAllRetry  = "offer.take_all.retry"
)

const (
	TargetTypeLot   = "lot"
	TargetTypeRound = "round"
	TargetTypeOffer = "offer"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      *snowflake.ID     `gorm:"index" json:"org_id,omitempty"`
	ActorType  string            `gorm:"not null" json:"actor_type"`
	ActorID    *string           `json:"actor_id,omitempty"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   *string           `gorm:"index" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	OrgID      snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Limit      int
}
