package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type LotStatus string

const (
	LotStatusDraft   LotStatus = "draft"
	LotStatusLive    LotStatus = "live"
	LotStatusAwarded LotStatus = "awarded"
	LotStatusClosed  LotStatus = "closed"
)

type Lot struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Title     string       `gorm:"not null" json:"title"`
	Currency  string       `gorm:"not null" json:"currency"`
	Status    LotStatus    `gorm:"not null;default:draft" json:"status"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// LineItem is one unit of award. Quantity <= 0 means the seller did not state it.
type LineItem struct {
	ID          snowflake.ID        `gorm:"primaryKey" json:"id"`
	LotID       snowflake.ID        `gorm:"not null;index" json:"lot_id"`
	Position    int                 `gorm:"not null;default:0" json:"position"`
	Description string              `json:"description"`
	Model       string              `json:"model"`
	Quantity    int64               `gorm:"not null;default:0" json:"quantity"`
	AskingPrice decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"asking_price"`
	CreatedAt   time.Time           `gorm:"not null" json:"created_at"`
}

// QuantityKnown reports whether the seller stated a positive quantity.
func (li LineItem) QuantityKnown() bool {
	return li.Quantity > 0
}
