package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AwardedLine records which buyer won a line item in a round.
// (round_id, line_item_id) is unique; re-awarding a round overwrites in place.
type AwardedLine struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	LotID         snowflake.ID        `gorm:"not null;index" json:"lot_id"`
	RoundID       snowflake.ID        `gorm:"not null;uniqueIndex:ux_awarded_lines_round_item,priority:1" json:"round_id"`
	LineItemID    snowflake.ID        `gorm:"not null;uniqueIndex:ux_awarded_lines_round_item,priority:2" json:"line_item_id"`
	BuyerID       snowflake.ID        `gorm:"not null;index" json:"buyer_id"`
	OfferID       snowflake.ID        `gorm:"not null" json:"offer_id"`
	Currency      string              `gorm:"not null" json:"currency"`
	UnitPrice     decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"unit_price"`
	Quantity      int64               `gorm:"not null" json:"quantity"`
	ExtendedValue decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"extended_value"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}
