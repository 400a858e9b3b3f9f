package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/lot/repository"
	"github.com/smallbiznis/lotbid/internal/orgcontext"
	"github.com/smallbiznis/lotbid/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetScopesByOrganization(t *testing.T) {
	conn := db.NewTest(t, &domain.Lot{}, &domain.LineItem{})
	repo := repository.Provide()
	svc := New(Params{DB: conn, Log: zap.NewNop(), Repo: repo})

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(context.Background(), conn, &domain.Lot{
		ID: 10, OrgID: 1, Title: "Servers", Currency: "USD", Status: domain.LotStatusLive, CreatedAt: now, UpdatedAt: now,
	}))

	_, err := svc.Get(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	_, err = svc.Get(orgcontext.WithOrgID(context.Background(), 2), 10)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)

	_, err = svc.Get(orgcontext.WithOrgID(context.Background(), 1), 99)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)

	lot, err := svc.Get(orgcontext.WithOrgID(context.Background(), 1), 10)
	require.NoError(t, err)
	assert.Equal(t, "Servers", lot.Title)
}

func TestLineItemsOrderedByPosition(t *testing.T) {
	conn := db.NewTest(t, &domain.Lot{}, &domain.LineItem{})
	repo := repository.Provide()
	svc := New(Params{DB: conn, Log: zap.NewNop(), Repo: repo})

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertLineItems(context.Background(), conn, []*domain.LineItem{
		{ID: 3, LotID: 10, Position: 2, Model: "R740", Quantity: 4, CreatedAt: now},
		{ID: 2, LotID: 10, Position: 1, Model: "R640", Quantity: 0, CreatedAt: now},
		{ID: 4, LotID: 11, Position: 1, Model: "other", Quantity: 1, CreatedAt: now},
	}))

	items, err := svc.LineItems(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "R640", items[0].Model)
	assert.False(t, items[0].QuantityKnown())
	assert.Equal(t, "R740", items[1].Model)
	assert.True(t, items[1].QuantityKnown())
	assert.False(t, items[0].AskingPrice.Valid)
}
