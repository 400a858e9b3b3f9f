package domain

import (
	"github.com/bwmarrin/snowflake"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	"github.com/smallbiznis/lotbid/internal/optimizer"
)

// EligibleLineItems returns items not present in awarded, keeping input order.
func EligibleLineItems(items []lotdomain.LineItem, awarded map[snowflake.ID]struct{}) []lotdomain.LineItem {
	eligible := make([]lotdomain.LineItem, 0, len(items))
	for _, item := range items {
		if _, taken := awarded[item.ID]; taken {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible
}

// TakeAllWinners awards every item to the offer's buyer. The lot-wide total
// is not split across lines, so unit price and extended value stay null.
func TakeAllWinners(offer offerdomain.Offer, items []lotdomain.LineItem) []optimizer.Winner {
	winners := make([]optimizer.Winner, 0, len(items))
	for _, item := range items {
		winners = append(winners, optimizer.Winner{
			LineItemID: item.ID,
			OfferID:    offer.ID,
			BuyerID:    offer.BuyerID,
			Quantity:   item.Quantity,
		})
	}
	return winners
}
