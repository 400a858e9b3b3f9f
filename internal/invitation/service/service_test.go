package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	awardrepo "github.com/smallbiznis/lotbid/internal/award/repository"
	awardservice "github.com/smallbiznis/lotbid/internal/award/service"
	"github.com/smallbiznis/lotbid/internal/clock"
	"github.com/smallbiznis/lotbid/internal/invitation/domain"
	"github.com/smallbiznis/lotbid/internal/invitation/repository"
	lotrepo "github.com/smallbiznis/lotbid/internal/lot/repository"
	"github.com/smallbiznis/lotbid/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	offerrepo "github.com/smallbiznis/lotbid/internal/offer/repository"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	roundrepo "github.com/smallbiznis/lotbid/internal/round/repository"
	roundservice "github.com/smallbiznis/lotbid/internal/round/service"
	"github.com/smallbiznis/lotbid/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lotID   snowflake.ID = 10
	buyerID snowflake.ID = 700
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	repo  domain.Repository
	svc   domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := db.NewTest(t,
		&domain.Invitation{},
		&rounddomain.Round{},
		&awarddomain.AwardedLine{},
		&offerdomain.Offer{},
	)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	repo := repository.Provide()

	svc := New(Params{
		DB:    conn,
		Log:   log,
		Clock: clk,
		Repo:  repo,
		Rounds: roundservice.New(roundservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: roundrepo.Provide(),
		}),
		Awards: awardservice.New(awardservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: awardrepo.Provide(), LotRepo: lotrepo.Provide(),
		}),
		Offers:  offerrepo.Provide(),
		Metrics: metrics.NewNoop(),
	})

	return &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    conn,
		clock: clk,
		node:  node,
		repo:  repo,
		svc:   svc,
	}
}

func (f *fixture) addRound(number int, status rounddomain.Status) rounddomain.Round {
	f.t.Helper()
	round := rounddomain.Round{
		ID:          f.node.Generate(),
		LotID:       lotID,
		RoundNumber: number,
		Scope:       rounddomain.ScopeAll,
		Status:      status,
		CreatedAt:   f.clock.Now(),
	}
	if number > 1 {
		round.Scope = rounddomain.ScopeUnsold
	}
	require.NoError(f.t, f.db.Create(&round).Error)
	return round
}

func (f *fixture) addInvitation(token string, roundID *snowflake.ID) domain.Invitation {
	f.t.Helper()
	invite := domain.Invitation{
		ID:        f.node.Generate(),
		LotID:     lotID,
		BuyerID:   buyerID,
		Token:     token,
		Email:     "buyer@example.com",
		RoundID:   roundID,
		Status:    domain.StatusSent,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(f.t, f.db.Create(&invite).Error)
	return invite
}

func (f *fixture) addAward(roundID snowflake.ID) awarddomain.AwardedLine {
	f.t.Helper()
	line := awarddomain.AwardedLine{
		ID:            f.node.Generate(),
		LotID:         lotID,
		RoundID:       roundID,
		LineItemID:    f.node.Generate(),
		BuyerID:       buyerID,
		OfferID:       f.node.Generate(),
		Currency:      "USD",
		UnitPrice:     decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Quantity:      5,
		ExtendedValue: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(f.t, f.db.Create(&line).Error)
	return line
}

func (f *fixture) addOffer(roundID *snowflake.ID) offerdomain.Offer {
	f.t.Helper()
	f.clock.Advance(time.Minute)
	offer := offerdomain.Offer{
		ID:        f.node.Generate(),
		LotID:     lotID,
		BuyerID:   buyerID,
		RoundID:   roundID,
		Currency:  "USD",
		Status:    offerdomain.OfferStatusNew,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(f.t, f.db.Create(&offer).Error)
	return offer
}

func (f *fixture) storedRound(id snowflake.ID) *snowflake.ID {
	f.t.Helper()
	stored, err := f.repo.FindByID(f.ctx, f.db, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, stored)
	return stored.RoundID
}

func TestResolveEffectiveRoundPrefersLiveRoundAndBackfills(t *testing.T) {
	f := newFixture(t)
	f.addRound(1, rounddomain.StatusClosed)
	live := f.addRound(2, rounddomain.StatusLive)
	f.addRound(3, rounddomain.StatusDraft)
	invite := f.addInvitation("tok-live", nil)

	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, rounddomain.RefOf(live), ref)
	require.NotNil(t, f.storedRound(invite.ID))
	assert.Equal(t, live.ID, *f.storedRound(invite.ID))
}

func TestResolveEffectiveRoundFallsBackToLatest(t *testing.T) {
	f := newFixture(t)
	f.addRound(1, rounddomain.StatusClosed)
	latest := f.addRound(2, rounddomain.StatusClosed)
	invite := f.addInvitation("tok-latest", nil)

	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, ref.ID)
	assert.Equal(t, 2, ref.Number)
}

func TestResolveEffectiveRoundWithoutRounds(t *testing.T) {
	f := newFixture(t)
	invite := f.addInvitation("tok-none", nil)

	_, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	assert.ErrorIs(t, err, rounddomain.ErrNoRound)
	assert.Nil(t, f.storedRound(invite.ID))
}

func TestResolveEffectiveRoundIsStableAfterNewRound(t *testing.T) {
	f := newFixture(t)
	first := f.addRound(1, rounddomain.StatusLive)
	invite := f.addInvitation("tok-stable", nil)

	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, first.ID, ref.ID)

	require.NoError(t, f.db.Model(&rounddomain.Round{}).Where("id = ?", first.ID).
		Update("status", rounddomain.StatusClosed).Error)
	f.addRound(2, rounddomain.StatusLive)

	reloaded, err := f.repo.FindByID(f.ctx, f.db, invite.ID)
	require.NoError(t, err)
	again, err := f.svc.ResolveEffectiveRound(f.ctx, *reloaded)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, again.Number)
}

func TestResolveEffectiveRoundUnknownBoundRound(t *testing.T) {
	f := newFixture(t)
	missing := snowflake.ID(987654)
	invite := f.addInvitation("tok-missing", &missing)

	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, missing, ref.ID)
	assert.False(t, ref.NumberKnown)
}

func TestResolveEffectiveRoundConvergesOnStoredBinding(t *testing.T) {
	f := newFixture(t)
	first := f.addRound(1, rounddomain.StatusClosed)
	f.addRound(2, rounddomain.StatusLive)
	invite := f.addInvitation("tok-race", nil)

	// A concurrent reader bound the invitation after this copy was loaded.
	changed, err := f.repo.BackfillRound(f.ctx, f.db, invite.ID, first.ID, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), changed)

	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, first.ID, ref.ID)
	assert.Equal(t, first.ID, *f.storedRound(invite.ID))
}

func TestResolveEffectiveRoundConcurrentBackfill(t *testing.T) {
	f := newFixture(t)
	live := f.addRound(1, rounddomain.StatusLive)
	invite := f.addInvitation("tok-concurrent", nil)

	const readers = 6
	var wg sync.WaitGroup
	refs := make([]rounddomain.Ref, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i], errs[i] = f.svc.ResolveEffectiveRound(f.ctx, invite)
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, live.ID, refs[i].ID)
	}
	assert.Equal(t, live.ID, *f.storedRound(invite.ID))
}

func TestIsWinnerIsScopedToEffectiveRound(t *testing.T) {
	f := newFixture(t)
	first := f.addRound(1, rounddomain.StatusClosed)
	second := f.addRound(2, rounddomain.StatusLive)
	f.addAward(first.ID)

	invite := f.addInvitation("tok-round2", &second.ID)
	ref, err := f.svc.ResolveEffectiveRound(f.ctx, invite)
	require.NoError(t, err)

	won, err := f.svc.IsWinner(f.ctx, invite, ref)
	require.NoError(t, err)
	assert.False(t, won)

	won, err = f.svc.IsWinner(f.ctx, invite, rounddomain.RefOf(first))
	require.NoError(t, err)
	assert.True(t, won)
}

func TestResolveOfferFallsBackToUnboundOffer(t *testing.T) {
	f := newFixture(t)
	round := f.addRound(1, rounddomain.StatusLive)
	invite := f.addInvitation("tok-offer", &round.ID)
	unbound := f.addOffer(nil)

	offer, err := f.svc.ResolveOffer(f.ctx, invite, rounddomain.RefOf(round))
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, unbound.ID, offer.ID)

	bound := f.addOffer(&round.ID)
	f.addOffer(nil)
	offer, err = f.svc.ResolveOffer(f.ctx, invite, rounddomain.RefOf(round))
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, bound.ID, offer.ID)
}

func TestResolveOfferWithoutOffers(t *testing.T) {
	f := newFixture(t)
	round := f.addRound(1, rounddomain.StatusLive)
	invite := f.addInvitation("tok-no-offer", &round.ID)

	offer, err := f.svc.ResolveOffer(f.ctx, invite, rounddomain.RefOf(round))
	require.NoError(t, err)
	assert.Nil(t, offer)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	first := f.addRound(1, rounddomain.StatusClosed)
	second := f.addRound(2, rounddomain.StatusLive)
	f.addAward(first.ID)
	won := f.addAward(second.ID)
	offer := f.addOffer(nil)
	invite := f.addInvitation("tok-status", nil)

	view, err := f.svc.Status(f.ctx, "tok-status")
	require.NoError(t, err)
	assert.Equal(t, invite.ID, view.InvitationID)
	assert.Equal(t, lotID, view.LotID)
	assert.Equal(t, buyerID, view.BuyerID)
	assert.Equal(t, second.ID, view.RoundID)
	require.NotNil(t, view.RoundNumber)
	assert.Equal(t, 2, *view.RoundNumber)
	assert.True(t, view.IsWinner)
	require.Len(t, view.AwardedLines, 1)
	assert.Equal(t, won.LineItemID, view.AwardedLines[0].LineItemID)
	require.NotNil(t, view.Offer)
	assert.Equal(t, offer.ID, view.Offer.ID)
}

func TestStatusUnknownBoundRound(t *testing.T) {
	f := newFixture(t)
	missing := snowflake.ID(55)
	f.addInvitation("tok-unknown", &missing)

	view, err := f.svc.Status(f.ctx, "tok-unknown")
	require.NoError(t, err)
	assert.Equal(t, missing, view.RoundID)
	assert.Nil(t, view.RoundNumber)
	assert.False(t, view.IsWinner)
	assert.NotNil(t, view.AwardedLines)
	assert.Empty(t, view.AwardedLines)
	assert.Nil(t, view.Offer)
}

func TestStatusTokenErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Status(f.ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = f.svc.Status(f.ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}
