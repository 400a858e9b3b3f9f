package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusNew      OfferStatus = "new"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

// Offer is a buyer's submission for a lot. RoundID is nil for lot-wide offers.
type Offer struct {
	ID           snowflake.ID        `gorm:"primaryKey" json:"id"`
	LotID        snowflake.ID        `gorm:"not null;index:idx_offers_lot_buyer,priority:1" json:"lot_id"`
	BuyerID      snowflake.ID        `gorm:"not null;index:idx_offers_lot_buyer,priority:2" json:"buyer_id"`
	RoundID      *snowflake.ID       `gorm:"index" json:"round_id,omitempty"`
	Currency     string              `gorm:"not null" json:"currency"`
	TakeAllTotal decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"take_all_total"`
	Notes        string              `json:"notes,omitempty"`
	Status       OfferStatus         `gorm:"not null" json:"status"`
	CreatedAt    time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"not null" json:"updated_at"`
}

func (o Offer) IsTakeAll() bool {
	return o.TakeAllTotal.Valid
}

// OfferLine is a per-line bid. A null UnitPrice means the buyer did not bid on the line.
type OfferLine struct {
	ID         snowflake.ID        `gorm:"primaryKey" json:"id"`
	OfferID    snowflake.ID        `gorm:"not null;index" json:"offer_id"`
	LineItemID snowflake.ID        `gorm:"not null;index" json:"line_item_id"`
	UnitPrice  decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"unit_price"`
	Quantity   int64               `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time           `gorm:"not null" json:"created_at"`
}
