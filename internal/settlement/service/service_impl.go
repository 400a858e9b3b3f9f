package service

import (
	"context"
	"errors"
	"sort"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/lotbid/internal/audit/domain"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	"github.com/smallbiznis/lotbid/internal/clock"
	"github.com/smallbiznis/lotbid/internal/config"
	"github.com/smallbiznis/lotbid/internal/events"
	"github.com/smallbiznis/lotbid/internal/lock"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	"github.com/smallbiznis/lotbid/internal/optimizer"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"github.com/smallbiznis/lotbid/internal/settlement/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sourceOptimizer = "optimizer"
	sourceTakeAll   = "take_all"
)

var tracer = otel.Tracer("lotbid/settlement")

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Lots     lotdomain.Service
	LotRepo  lotdomain.Repository
	Offers   offerdomain.Repository
	Rounds   rounddomain.Service
	Awards   awarddomain.Service
	Audit    auditdomain.Service
	Locker   lock.Locker
	Events   events.Publisher
	Settings *config.SettlementConfigHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	lots     lotdomain.Service
	lotRepo  lotdomain.Repository
	offers   offerdomain.Repository
	rounds   rounddomain.Service
	awards   awarddomain.Service
	audit    auditdomain.Service
	locker   lock.Locker
	events   events.Publisher
	settings *config.SettlementConfigHolder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("settlement.service"),
		clock:    p.Clock,
		lots:     p.Lots,
		lotRepo:  p.LotRepo,
		offers:   p.Offers,
		rounds:   p.Rounds,
		awards:   p.Awards,
		audit:    p.Audit,
		locker:   p.Locker,
		events:   p.Events,
		settings: p.Settings,
		metrics:  p.Metrics,
	}
}

func (s *Service) PreviewOptimizer(ctx context.Context, lotID snowflake.ID) (domain.OptimizerRun, error) {
	lot, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	ref, err := s.previewRound(ctx, lot.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	return s.planOptimizer(ctx, lot, ref)
}

func (s *Service) RunOptimizer(ctx context.Context, lotID snowflake.ID) (domain.OptimizerRun, error) {
	ctx, span := tracer.Start(ctx, "settlement.RunOptimizer")
	defer span.End()
	span.SetAttributes(attribute.String("lot_id", lotID.String()))

	lot, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}

	release, err := s.acquire(ctx, lot.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	defer release()

	ref, err := s.currentRound(ctx, lot.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}

	run, err := s.planOptimizer(ctx, lot, ref)
	if err != nil {
		return domain.OptimizerRun{}, err
	}

	awarded, err := s.awards.Award(ctx, lot, run.Round, run.Result.Winners)
	if err != nil {
		if errors.Is(err, awarddomain.ErrNothingToAward) {
			s.metrics.RecordSettlementNoop(ctx, sourceOptimizer)
			s.log.Info("optimizer found nothing to award",
				zap.String("lot_id", lot.ID.String()),
				zap.String("round_id", run.Round.ID.String()),
				zap.Int("excluded", len(run.Excluded)),
			)
			return run, err
		}
		span.RecordError(err)
		s.metrics.RecordSettlementFailure(ctx, sourceOptimizer, failureReason(err))
		return domain.OptimizerRun{}, err
	}
	run.Awarded = awarded

	s.recordAward(ctx, lot, run.Round, sourceOptimizer, awarded, 0, auditdomain.ActionOptimizerRun, map[string]any{
		"total":  run.Result.Total.String(),
		"buyers": len(run.Result.Buyers),
	})
	return run, nil
}

func (s *Service) AcceptTakeAll(ctx context.Context, lotID, offerID snowflake.ID) (domain.TakeAllResult, error) {
	ctx, span := tracer.Start(ctx, "settlement.AcceptTakeAll")
	defer span.End()
	span.SetAttributes(
		attribute.String("lot_id", lotID.String()),
		attribute.String("offer_id", offerID.String()),
	)

	lot, offer, err := s.loadOffer(ctx, lotID, offerID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}
	if offer.Status == offerdomain.OfferStatusRejected {
		return domain.TakeAllResult{}, domain.ErrOfferRejected
	}

	release, err := s.acquire(ctx, lot.ID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}
	defer release()

	ref, err := s.currentRound(ctx, lot.ID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}

	if offer.Status != offerdomain.OfferStatusAccepted {
		now := s.clock.Now()
		accepted, err := s.offers.Accept(ctx, s.db, offer.ID, now)
		if err != nil {
			return domain.TakeAllResult{}, err
		}
		// Another take-all rejected this offer after it was read.
		if accepted == 0 {
			return domain.TakeAllResult{}, domain.ErrOfferRejected
		}
		offer.Status = offerdomain.OfferStatusAccepted
		offer.UpdatedAt = now

		s.metrics.RecordTakeAllAccepted(ctx)
		s.publish(ctx, events.Event{
			Type:       events.TypeOfferAccepted,
			LotID:      lot.ID,
			RoundID:    ref.ID,
			OfferID:    offer.ID,
			OccurredAt: now,
			Payload:    map[string]any{"buyer_id": offer.BuyerID.String(), "take_all_total": offer.TakeAllTotal.Decimal.String()},
		})
	}

	result, err := s.settleTakeAll(ctx, lot, offer, ref, auditdomain.ActionTakeAllAccept)
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (s *Service) RetryTakeAllAward(ctx context.Context, lotID, offerID snowflake.ID) (domain.TakeAllResult, error) {
	lot, offer, err := s.loadOffer(ctx, lotID, offerID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}
	if offer.Status != offerdomain.OfferStatusAccepted {
		return domain.TakeAllResult{}, domain.ErrOfferNotAccepted
	}

	release, err := s.acquire(ctx, lot.ID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}
	defer release()

	ref, err := s.currentRound(ctx, lot.ID)
	if err != nil {
		return domain.TakeAllResult{}, err
	}
	return s.settleTakeAll(ctx, lot, offer, ref, auditdomain.ActionTakeAllRetry)
}

// settleTakeAll runs every step after acceptance. Failures are reported as
// partial settlements so callers retry the award without re-accepting.
func (s *Service) settleTakeAll(ctx context.Context, lot lotdomain.Lot, offer offerdomain.Offer, ref rounddomain.Ref, action string) (domain.TakeAllResult, error) {
	result := domain.TakeAllResult{Offer: offer, Round: ref}

	partial := func(step string, err error) (domain.TakeAllResult, error) {
		s.metrics.RecordSettlementFailure(ctx, sourceTakeAll, step)
		s.log.Error("take-all settlement incomplete",
			zap.String("lot_id", lot.ID.String()),
			zap.String("offer_id", offer.ID.String()),
			zap.String("step", step),
			zap.Error(err),
		)
		return result, &domain.PartialSettlementError{OfferID: offer.ID, Step: step, Err: err}
	}

	rejected, err := s.offers.RejectOthers(ctx, s.db, lot.ID, offer.ID, s.clock.Now())
	if err != nil {
		return partial(domain.StepRejectOthers, err)
	}
	result.Rejected = rejected

	awardedIDs, err := s.awards.AwardedLineItemIDs(ctx, lot.ID, nil)
	if err != nil {
		return partial(domain.StepEligibleItems, err)
	}
	items, err := s.lotRepo.ListLineItems(ctx, s.db, lot.ID)
	if err != nil {
		return partial(domain.StepEligibleItems, err)
	}
	eligible := domain.EligibleLineItems(items, awardedIDs)

	if len(eligible) == 0 {
		s.metrics.RecordSettlementNoop(ctx, sourceTakeAll)
		s.log.Info("take-all found no unsold line items",
			zap.String("lot_id", lot.ID.String()),
			zap.String("offer_id", offer.ID.String()),
		)
		return result, awarddomain.ErrNothingToAward
	}

	awarded, err := s.awards.Award(ctx, lot, ref, domain.TakeAllWinners(offer, eligible))
	if err != nil {
		return partial(domain.StepAward, err)
	}
	result.Awarded = awarded

	s.recordAward(ctx, lot, ref, sourceTakeAll, awarded, offer.ID, action, map[string]any{
		"offer_id":        offer.ID.String(),
		"buyer_id":        offer.BuyerID.String(),
		"rejected_offers": rejected,
	})
	return result, nil
}

func (s *Service) planOptimizer(ctx context.Context, lot lotdomain.Lot, ref rounddomain.Ref) (domain.OptimizerRun, error) {
	items, err := s.lotRepo.ListLineItems(ctx, s.db, lot.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	awardedElsewhere, err := s.awards.AwardedLineItemIDs(ctx, lot.ID, &ref.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	eligible := domain.EligibleLineItems(items, awardedElsewhere)

	offers, err := s.offers.ListByLot(ctx, s.db, lot.ID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	pool := make([]offerdomain.Offer, 0, len(offers))
	offerIDs := make([]snowflake.ID, 0, len(offers))
	for _, offer := range offers {
		// Unbound offers apply to every round.
		if offer.RoundID != nil && *offer.RoundID != ref.ID {
			continue
		}
		pool = append(pool, offer)
		offerIDs = append(offerIDs, offer.ID)
	}
	lines, err := s.offers.ListLines(ctx, s.db, offerIDs)
	if err != nil {
		return domain.OptimizerRun{}, err
	}

	excluded := make([]snowflake.ID, 0, len(awardedElsewhere))
	for id := range awardedElsewhere {
		excluded = append(excluded, id)
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i] < excluded[j] })

	return domain.OptimizerRun{
		Round:    ref,
		Excluded: excluded,
		Result:   optimizer.ComputeWinners(eligible, pool, lines),
	}, nil
}

// currentRound returns the lot's current round, creating round 1 if needed.
// Custom-scope rounds are refused before anything is written.
func (s *Service) currentRound(ctx context.Context, lotID snowflake.ID) (rounddomain.Ref, error) {
	rounds, ref, err := s.rounds.EnsureRounds(ctx, lotID)
	if err != nil {
		return rounddomain.Ref{}, err
	}
	if err := checkScope(rounds, ref); err != nil {
		return rounddomain.Ref{}, err
	}
	return ref, nil
}

// previewRound resolves the current round without creating one. A lot with
// no rounds previews against the round 1 a run would create.
func (s *Service) previewRound(ctx context.Context, lotID snowflake.ID) (rounddomain.Ref, error) {
	rounds, err := s.rounds.List(ctx, lotID)
	if err != nil {
		return rounddomain.Ref{}, err
	}
	ref, err := rounddomain.Current(rounds)
	if errors.Is(err, rounddomain.ErrNoRound) {
		return rounddomain.Ref{Number: 1, NumberKnown: true}, nil
	}
	if err != nil {
		return rounddomain.Ref{}, err
	}
	if err := checkScope(rounds, ref); err != nil {
		return rounddomain.Ref{}, err
	}
	return ref, nil
}

func checkScope(rounds []rounddomain.Round, ref rounddomain.Ref) error {
	for _, r := range rounds {
		if r.ID == ref.ID && r.Scope == rounddomain.ScopeCustom {
			return domain.ErrUnsupportedScope
		}
	}
	return nil
}

func (s *Service) loadOffer(ctx context.Context, lotID, offerID snowflake.ID) (lotdomain.Lot, offerdomain.Offer, error) {
	lot, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return lotdomain.Lot{}, offerdomain.Offer{}, err
	}
	offer, err := s.offers.FindByID(ctx, s.db, lot.ID, offerID)
	if err != nil {
		return lotdomain.Lot{}, offerdomain.Offer{}, err
	}
	if offer == nil {
		return lotdomain.Lot{}, offerdomain.Offer{}, offerdomain.ErrOfferNotFound
	}
	if !offer.IsTakeAll() {
		return lotdomain.Lot{}, offerdomain.Offer{}, domain.ErrNotTakeAllOffer
	}
	return lot, *offer, nil
}

func (s *Service) acquire(ctx context.Context, lotID snowflake.ID) (func(), error) {
	cfg := s.settings.Get()
	if !cfg.LockEnabled || s.locker == nil {
		return func() {}, nil
	}

	key := lock.SettlementKey(lotID)
	token, ok, err := s.locker.TryLock(ctx, key, cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSettlementInProgress
	}

	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("failed to release settlement lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *Service) recordAward(ctx context.Context, lot lotdomain.Lot, ref rounddomain.Ref, source string, awarded []awarddomain.AwardedLine, offerID snowflake.ID, action string, metadata map[string]any) {
	s.metrics.RecordAwardedLines(ctx, source, len(awarded))

	metadata["round_id"] = ref.ID.String()
	metadata["round_number"] = ref.Number
	metadata["lines"] = len(awarded)

	targetType, targetID := auditdomain.TargetTypeLot, lot.ID.String()
	if offerID != 0 {
		targetType, targetID = auditdomain.TargetTypeOffer, offerID.String()
	}
	if err := s.audit.AuditLog(ctx, nil, &lot.OrgID, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to audit award", zap.String("lot_id", lot.ID.String()), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:       events.TypeLotAwarded,
		LotID:      lot.ID,
		RoundID:    ref.ID,
		OfferID:    offerID,
		OccurredAt: s.clock.Now(),
		Payload:    map[string]any{"source": source, "lines": len(awarded)},
	})

	s.log.Info("lot awarded",
		zap.String("lot_id", lot.ID.String()),
		zap.String("round_id", ref.ID.String()),
		zap.String("source", source),
		zap.Int("lines", len(awarded)),
	)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish settlement event",
			zap.String("type", event.Type),
			zap.String("lot_id", event.LotID.String()),
			zap.Error(err),
		)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, awarddomain.ErrStorageConflict):
		return "storage_conflict"
	case errors.Is(err, awarddomain.ErrNoRoundAvailable):
		return "no_round"
	default:
		return "internal"
	}
}
