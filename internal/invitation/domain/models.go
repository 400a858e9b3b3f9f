package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvitationStatus string

var (
	StatusSent     InvitationStatus = "sent"
	StatusOpened   InvitationStatus = "opened"
	StatusDeclined InvitationStatus = "declined"
)

// Invitation is the buyer's entry point to a lot. RoundID is derived state:
// it is backfilled once from the lot's rounds so later reads stay stable.
type Invitation struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	LotID     snowflake.ID     `gorm:"not null;index" json:"lot_id"`
	BuyerID   snowflake.ID     `gorm:"not null;index" json:"buyer_id"`
	Token     string           `gorm:"not null;uniqueIndex" json:"-"`
	Email     string           `gorm:"not null" json:"email"`
	RoundID   *snowflake.ID    `gorm:"index" json:"round_id,omitempty"`
	Status    InvitationStatus `gorm:"not null;default:sent" json:"status"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}
