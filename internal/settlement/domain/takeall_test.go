package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibleLineItems(t *testing.T) {
	items := []lotdomain.LineItem{{ID: 1}, {ID: 2}, {ID: 3}}

	eligible := EligibleLineItems(items, map[snowflake.ID]struct{}{2: {}})
	require.Len(t, eligible, 2)
	assert.Equal(t, snowflake.ID(1), eligible[0].ID)
	assert.Equal(t, snowflake.ID(3), eligible[1].ID)

	assert.Len(t, EligibleLineItems(items, nil), 3)
	assert.Empty(t, EligibleLineItems(items, map[snowflake.ID]struct{}{1: {}, 2: {}, 3: {}}))
}

func TestTakeAllWinners(t *testing.T) {
	offer := offerdomain.Offer{ID: 50, BuyerID: 9}
	winners := TakeAllWinners(offer, []lotdomain.LineItem{{ID: 1, Quantity: 5}, {ID: 2, Quantity: 0}})

	require.Len(t, winners, 2)
	for _, w := range winners {
		assert.Equal(t, snowflake.ID(50), w.OfferID)
		assert.Equal(t, snowflake.ID(9), w.BuyerID)
		assert.False(t, w.UnitPrice.Valid)
		assert.False(t, w.Extended.Valid)
	}
	assert.Equal(t, int64(5), winners[0].Quantity)
	assert.Equal(t, int64(0), winners[1].Quantity)
}

func TestPartialSettlementErrorUnwraps(t *testing.T) {
	cause := errors.New("db down")
	var err error = &PartialSettlementError{OfferID: 7, Step: StepAward, Err: cause}
	wrapped := fmt.Errorf("accept: %w", err)

	assert.ErrorIs(t, wrapped, ErrPartialSettlement)
	assert.ErrorIs(t, wrapped, cause)

	var partial *PartialSettlementError
	require.ErrorAs(t, wrapped, &partial)
	assert.Equal(t, StepAward, partial.Step)
	assert.Contains(t, err.Error(), "award failed")
}
