// Package optimizer picks the revenue-maximizing bid for each line item of a lot.
package optimizer

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
)

type candidate struct {
	line      offerdomain.OfferLine
	offer     offerdomain.Offer
	quantity  int64
	extended  decimal.Decimal
	createdAt time.Time
}

// beats orders candidates for the same line item: higher unit price, then the
// earlier offer, then the lower offer id, then the lower offer line id.
func (c candidate) beats(other candidate) bool {
	if cmp := c.line.UnitPrice.Decimal.Cmp(other.line.UnitPrice.Decimal); cmp != 0 {
		return cmp > 0
	}
	if !c.createdAt.Equal(other.createdAt) {
		return c.createdAt.Before(other.createdAt)
	}
	if c.offer.ID != other.offer.ID {
		return c.offer.ID < other.offer.ID
	}
	return c.line.ID < other.line.ID
}

// ComputeWinners selects the highest unit-price bid per line item. Bids without
// a price, bids on items outside lineItems, and bids from rejected offers are
// ignored. The result does not depend on input order.
func ComputeWinners(lineItems []lotdomain.LineItem, offers []offerdomain.Offer, lines []offerdomain.OfferLine) Result {
	items := make(map[snowflake.ID]lotdomain.LineItem, len(lineItems))
	for _, item := range lineItems {
		items[item.ID] = item
	}

	pool := make(map[snowflake.ID]offerdomain.Offer, len(offers))
	for _, offer := range offers {
		if offer.Status == offerdomain.OfferStatusRejected {
			continue
		}
		pool[offer.ID] = offer
	}

	best := make(map[snowflake.ID]candidate)
	for _, line := range lines {
		if !line.UnitPrice.Valid {
			continue
		}
		item, ok := items[line.LineItemID]
		if !ok {
			continue
		}
		offer, ok := pool[line.OfferID]
		if !ok || offer.LotID != item.LotID {
			continue
		}

		qty := line.Quantity
		if item.QuantityKnown() {
			qty = item.Quantity
		}
		c := candidate{
			line:      line,
			offer:     offer,
			quantity:  qty,
			extended:  line.UnitPrice.Decimal.Mul(decimal.NewFromInt(qty)),
			createdAt: offer.CreatedAt,
		}
		if current, ok := best[item.ID]; !ok || c.beats(current) {
			best[item.ID] = c
		}
	}

	winners := make([]Winner, 0, len(best))
	for itemID, c := range best {
		winners = append(winners, Winner{
			LineItemID: itemID,
			OfferID:    c.offer.ID,
			BuyerID:    c.offer.BuyerID,
			UnitPrice:  c.line.UnitPrice,
			Quantity:   c.quantity,
			Extended:   decimal.NewNullDecimal(c.extended),
		})
	}
	sortWinners(winners)

	return Summarize(winners)
}

// Summarize builds the per-buyer rollup and grand total for winners.
// Winners with a null extended value count toward lines but not totals.
func Summarize(winners []Winner) Result {
	total := decimal.Zero
	byBuyer := make(map[snowflake.ID]*BuyerTotal)
	for _, w := range winners {
		bt, ok := byBuyer[w.BuyerID]
		if !ok {
			bt = &BuyerTotal{BuyerID: w.BuyerID, Total: decimal.Zero}
			byBuyer[w.BuyerID] = bt
		}
		bt.Lines++
		if w.Extended.Valid {
			bt.Total = bt.Total.Add(w.Extended.Decimal)
			total = total.Add(w.Extended.Decimal)
		}
	}

	buyers := make([]BuyerTotal, 0, len(byBuyer))
	for _, bt := range byBuyer {
		buyers = append(buyers, *bt)
	}
	sort.Slice(buyers, func(i, j int) bool {
		if cmp := buyers[i].Total.Cmp(buyers[j].Total); cmp != 0 {
			return cmp > 0
		}
		return buyers[i].BuyerID < buyers[j].BuyerID
	})

	if winners == nil {
		winners = []Winner{}
	}
	return Result{Winners: winners, Buyers: buyers, Total: total}
}

func sortWinners(winners []Winner) {
	sort.Slice(winners, func(i, j int) bool {
		a, b := winners[i].Extended.Decimal, winners[j].Extended.Decimal
		if cmp := a.Cmp(b); cmp != 0 {
			return cmp > 0
		}
		return winners[i].LineItemID < winners[j].LineItemID
	})
}
