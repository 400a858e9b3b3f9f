package optimizer

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
)

const lotID snowflake.ID = 1

var base = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func item(id snowflake.ID, qty int64) lotdomain.LineItem {
	return lotdomain.LineItem{ID: id, LotID: lotID, Quantity: qty}
}

func offer(id, buyer snowflake.ID, at time.Time) offerdomain.Offer {
	return offerdomain.Offer{ID: id, LotID: lotID, BuyerID: buyer, Status: offerdomain.OfferStatusNew, CreatedAt: at}
}

func bid(id, offerID, itemID snowflake.ID, price string, qty int64) offerdomain.OfferLine {
	line := offerdomain.OfferLine{ID: id, OfferID: offerID, LineItemID: itemID, Quantity: qty}
	if price != "" {
		line.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	return line
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeWinnersPicksHighestUnitPrice(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 10)}
	offers := []offerdomain.Offer{offer(1, 501, base), offer(2, 502, base.Add(time.Minute))}
	lines := []offerdomain.OfferLine{
		bid(11, 1, 100, "5", 10),
		bid(21, 2, 100, "8", 10),
	}

	result := ComputeWinners(items, offers, lines)

	check.Equal(t, 1, len(result.Winners))
	w := result.Winners[0]
	check.Equal(t, snowflake.ID(502), w.BuyerID)
	check.Equal(t, snowflake.ID(2), w.OfferID)
	check.Equal(t, int64(10), w.Quantity)
	check.True(t, w.UnitPrice.Decimal.Equal(dec("8")))
	check.True(t, w.Extended.Valid)
	check.True(t, w.Extended.Decimal.Equal(dec("80")))
	check.True(t, result.Total.Equal(dec("80")))
}

func TestComputeWinnersSingleBuyerTwoLines(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 5), item(101, 3)}
	offers := []offerdomain.Offer{offer(1, 700, base)}
	lines := []offerdomain.OfferLine{
		bid(11, 1, 100, "10", 5),
		bid(12, 1, 101, "20", 3),
	}

	result := ComputeWinners(items, offers, lines)

	check.Equal(t, 2, len(result.Winners))
	// 60 sorts before 50.
	check.Equal(t, snowflake.ID(101), result.Winners[0].LineItemID)
	check.True(t, result.Winners[0].Extended.Decimal.Equal(dec("60")))
	check.Equal(t, snowflake.ID(100), result.Winners[1].LineItemID)
	check.True(t, result.Winners[1].Extended.Decimal.Equal(dec("50")))

	check.True(t, result.Total.Equal(dec("110")))
	check.Equal(t, 1, len(result.Buyers))
	check.Equal(t, snowflake.ID(700), result.Buyers[0].BuyerID)
	check.Equal(t, 2, result.Buyers[0].Lines)
	check.True(t, result.Buyers[0].Total.Equal(dec("110")))
}

func TestComputeWinnersTieBreakIsEarliestOfferRegardlessOfOrder(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 2)}
	early := offer(9, 801, base)
	late := offer(3, 802, base.Add(time.Hour))
	earlyBid := bid(91, 9, 100, "7.25", 2)
	lateBid := bid(31, 3, 100, "7.25", 2)

	orders := []struct {
		offers []offerdomain.Offer
		lines  []offerdomain.OfferLine
	}{
		{[]offerdomain.Offer{early, late}, []offerdomain.OfferLine{earlyBid, lateBid}},
		{[]offerdomain.Offer{late, early}, []offerdomain.OfferLine{lateBid, earlyBid}},
		{[]offerdomain.Offer{late, early}, []offerdomain.OfferLine{earlyBid, lateBid}},
	}
	for _, o := range orders {
		result := ComputeWinners(items, o.offers, o.lines)
		check.Equal(t, 1, len(result.Winners))
		check.Equal(t, snowflake.ID(801), result.Winners[0].BuyerID)
		check.Equal(t, snowflake.ID(9), result.Winners[0].OfferID)
	}
}

func TestComputeWinnersTieBreakFallsBackToOfferID(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 1)}
	offers := []offerdomain.Offer{offer(5, 901, base), offer(4, 902, base)}
	lines := []offerdomain.OfferLine{bid(51, 5, 100, "3", 1), bid(41, 4, 100, "3", 1)}

	result := ComputeWinners(items, offers, lines)
	check.Equal(t, snowflake.ID(4), result.Winners[0].OfferID)

	// Same offer bidding twice on one line: lower line id wins.
	dup := []offerdomain.OfferLine{bid(61, 5, 100, "3", 1), bid(60, 5, 100, "3", 1)}
	result = ComputeWinners(items, offers[:1], dup)
	check.Equal(t, snowflake.ID(5), result.Winners[0].OfferID)
	check.Equal(t, snowflake.ID(901), result.Winners[0].BuyerID)
}

func TestComputeWinnersUnknownQuantityUsesBidSnapshot(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 0)}
	offers := []offerdomain.Offer{offer(1, 501, base)}
	lines := []offerdomain.OfferLine{bid(11, 1, 100, "2.5", 4)}

	result := ComputeWinners(items, offers, lines)
	check.Equal(t, int64(4), result.Winners[0].Quantity)
	check.True(t, result.Winners[0].Extended.Decimal.Equal(dec("10")))
}

func TestComputeWinnersIgnoresIneligibleBids(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 1), item(101, 1)}
	rejected := offer(2, 502, base)
	rejected.Status = offerdomain.OfferStatusRejected
	offers := []offerdomain.Offer{offer(1, 501, base), rejected}
	lines := []offerdomain.OfferLine{
		bid(11, 1, 100, "", 1),    // no price
		bid(12, 1, 999, "50", 1),  // not in lot
		bid(21, 2, 100, "100", 1), // rejected offer
		bid(13, 1, 101, "4", 1),
		bid(31, 3, 101, "90", 1), // unknown offer
	}

	result := ComputeWinners(items, offers, lines)
	check.Equal(t, 1, len(result.Winners))
	check.Equal(t, snowflake.ID(101), result.Winners[0].LineItemID)
	check.Equal(t, snowflake.ID(501), result.Winners[0].BuyerID)
}

func TestComputeWinnersEmpty(t *testing.T) {
	result := ComputeWinners([]lotdomain.LineItem{item(100, 1)}, nil, nil)
	check.True(t, result.Empty())
	check.True(t, result.Winners != nil)
	check.True(t, result.Total.IsZero())
	check.Equal(t, 0, len(result.Buyers))
}

func TestComputeWinnersOrdering(t *testing.T) {
	items := []lotdomain.LineItem{item(100, 1), item(101, 1), item(102, 1)}
	offers := []offerdomain.Offer{offer(1, 20, base), offer(2, 10, base)}
	lines := []offerdomain.OfferLine{
		bid(11, 1, 102, "30", 1),
		bid(12, 1, 101, "30", 1),
		bid(21, 2, 100, "60", 1),
	}

	result := ComputeWinners(items, offers, lines)
	check.Equal(t, 3, len(result.Winners))
	check.Equal(t, snowflake.ID(100), result.Winners[0].LineItemID)
	check.Equal(t, snowflake.ID(101), result.Winners[1].LineItemID)
	check.Equal(t, snowflake.ID(102), result.Winners[2].LineItemID)

	// Both buyers total 60; the lower buyer id sorts first.
	check.Equal(t, 2, len(result.Buyers))
	check.Equal(t, snowflake.ID(10), result.Buyers[0].BuyerID)
	check.Equal(t, snowflake.ID(20), result.Buyers[1].BuyerID)
	check.True(t, result.Total.Equal(dec("120")))
}

func TestSummarizeCountsNullExtendedLines(t *testing.T) {
	result := Summarize([]Winner{
		{LineItemID: 1, BuyerID: 7, Quantity: 2},
		{LineItemID: 2, BuyerID: 7, Quantity: 3},
	})
	check.Equal(t, 1, len(result.Buyers))
	check.Equal(t, 2, result.Buyers[0].Lines)
	check.True(t, result.Total.IsZero())
}
