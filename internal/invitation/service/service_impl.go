package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	"github.com/smallbiznis/lotbid/internal/clock"
	"github.com/smallbiznis/lotbid/internal/invitation/domain"
	"github.com/smallbiznis/lotbid/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("lotbid/invitation")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Rounds  rounddomain.Service
	Awards  awarddomain.Service
	Offers  offerdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	rounds  rounddomain.Service
	awards  awarddomain.Service
	offers  offerdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invitation.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		rounds:  p.Rounds,
		awards:  p.Awards,
		offers:  p.Offers,
		metrics: p.Metrics,
	}
}

func (s *Service) ResolveEffectiveRound(ctx context.Context, invite domain.Invitation) (rounddomain.Ref, error) {
	if invite.RoundID != nil {
		return s.boundRound(ctx, invite, *invite.RoundID), nil
	}

	rounds, err := s.rounds.List(ctx, invite.LotID)
	if err != nil {
		return rounddomain.Ref{}, err
	}
	ref, err := rounddomain.Current(rounds)
	if err != nil {
		return rounddomain.Ref{}, err
	}

	changed, err := s.repo.BackfillRound(ctx, s.db, invite.ID, ref.ID, s.clock.Now())
	if err != nil {
		// The binding is derived, so the resolution still stands.
		s.log.Warn("failed to backfill invitation round",
			zap.String("invitation_id", invite.ID.String()),
			zap.String("round_id", ref.ID.String()),
			zap.Error(err),
		)
		return ref, nil
	}
	if changed > 0 {
		s.metrics.RecordInvitationBackfill(ctx)
		return ref, nil
	}

	// Another reader bound it first; converge on the stored binding.
	stored, err := s.repo.FindByID(ctx, s.db, invite.ID)
	if err != nil {
		return rounddomain.Ref{}, err
	}
	if stored == nil || stored.RoundID == nil || *stored.RoundID == ref.ID {
		return ref, nil
	}
	return s.boundRound(ctx, *stored, *stored.RoundID), nil
}

// boundRound looks up the number of a bound round. A failed lookup keeps the
// bound id with an unknown number.
func (s *Service) boundRound(ctx context.Context, invite domain.Invitation, roundID snowflake.ID) rounddomain.Ref {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		s.log.Warn("bound round lookup failed",
			zap.String("invitation_id", invite.ID.String()),
			zap.String("round_id", roundID.String()),
			zap.Error(err),
		)
		return rounddomain.Ref{ID: roundID}
	}
	return rounddomain.RefOf(round)
}

func (s *Service) IsWinner(ctx context.Context, invite domain.Invitation, ref rounddomain.Ref) (bool, error) {
	lines, err := s.awards.ListForBuyer(ctx, invite.LotID, invite.BuyerID, ref.ID)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}

func (s *Service) ResolveOffer(ctx context.Context, invite domain.Invitation, ref rounddomain.Ref) (*offerdomain.Offer, error) {
	// 1. latest offer bound to the effective round
	offer, err := s.offers.FindLatestForBuyer(ctx, s.db, invite.LotID, invite.BuyerID, &ref.ID)
	if err != nil {
		return nil, err
	}
	if offer != nil {
		return offer, nil
	}
	// 2. latest offer for the lot, bound or not
	return s.offers.FindLatestForBuyer(ctx, s.db, invite.LotID, invite.BuyerID, nil)
}

func (s *Service) Status(ctx context.Context, token string) (domain.StatusView, error) {
	ctx, span := tracer.Start(ctx, "invitation.Status")
	defer span.End()

	if token == "" {
		return domain.StatusView{}, domain.ErrInvalidToken
	}
	invite, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return domain.StatusView{}, err
	}
	if invite == nil {
		return domain.StatusView{}, domain.ErrInvitationNotFound
	}
	span.SetAttributes(attribute.String("invitation_id", invite.ID.String()))

	ref, err := s.ResolveEffectiveRound(ctx, *invite)
	if err != nil {
		return domain.StatusView{}, err
	}

	lines, err := s.awards.ListForBuyer(ctx, invite.LotID, invite.BuyerID, ref.ID)
	if err != nil {
		return domain.StatusView{}, err
	}
	if lines == nil {
		lines = []awarddomain.AwardedLine{}
	}

	offer, err := s.ResolveOffer(ctx, *invite, ref)
	if err != nil {
		return domain.StatusView{}, err
	}

	view := domain.StatusView{
		InvitationID: invite.ID,
		LotID:        invite.LotID,
		BuyerID:      invite.BuyerID,
		RoundID:      ref.ID,
		IsWinner:     len(lines) > 0,
		AwardedLines: lines,
		Offer:        offer,
	}
	if ref.NumberKnown {
		number := ref.Number
		view.RoundNumber = &number
	}
	return view, nil
}
