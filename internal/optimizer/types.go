package optimizer

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Winner is the award decision for one line item. UnitPrice and Extended are
// null for lot-wide take-all awards, where no per-line price exists.
type Winner struct {
	LineItemID snowflake.ID        `json:"line_item_id"`
	OfferID    snowflake.ID        `json:"offer_id"`
	BuyerID    snowflake.ID        `json:"buyer_id"`
	UnitPrice  decimal.NullDecimal `json:"unit_price"`
	Quantity   int64               `json:"quantity"`
	Extended   decimal.NullDecimal `json:"extended"`
}

// BuyerTotal rolls up the lines a buyer won.
type BuyerTotal struct {
	BuyerID snowflake.ID    `json:"buyer_id"`
	Total   decimal.Decimal `json:"total"`
	Lines   int             `json:"lines"`
}

type Result struct {
	Winners []Winner        `json:"winners"`
	Buyers  []BuyerTotal    `json:"buyers"`
	Total   decimal.Decimal `json:"total"`
}

func (r Result) Empty() bool {
	return len(r.Winners) == 0
}
