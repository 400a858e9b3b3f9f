package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/award/domain"
	"github.com/smallbiznis/lotbid/internal/clock"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/optimizer"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"github.com/smallbiznis/lotbid/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("lotbid/award")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	LotRepo lotdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	lotRepo lotdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("award.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		lotRepo: p.LotRepo,
	}
}

// Award persists winners for the round and marks the lot awarded in one transaction.
func (s *Service) Award(ctx context.Context, lot lotdomain.Lot, round rounddomain.Ref, winners []optimizer.Winner) ([]domain.AwardedLine, error) {
	if round.ID == 0 {
		return nil, domain.ErrNoRoundAvailable
	}
	if len(winners) == 0 {
		return nil, domain.ErrNothingToAward
	}

	ctx, span := tracer.Start(ctx, "award.Award")
	defer span.End()
	span.SetAttributes(
		attribute.String("lot_id", lot.ID.String()),
		attribute.String("round_id", round.ID.String()),
		attribute.Int("winners", len(winners)),
	)

	now := s.clock.Now()
	byItem := make(map[snowflake.ID]optimizer.Winner, len(winners))
	itemIDs := make([]snowflake.ID, 0, len(winners))
	rows := make([]*domain.AwardedLine, 0, len(winners))
	for _, w := range winners {
		if _, dup := byItem[w.LineItemID]; dup {
			return nil, domain.ErrDuplicateWinner
		}
		byItem[w.LineItemID] = w
		itemIDs = append(itemIDs, w.LineItemID)
		rows = append(rows, &domain.AwardedLine{
			ID:            s.genID.Generate(),
			LotID:         lot.ID,
			RoundID:       round.ID,
			LineItemID:    w.LineItemID,
			BuyerID:       w.BuyerID,
			OfferID:       w.OfferID,
			Currency:      lot.Currency,
			UnitPrice:     w.UnitPrice,
			Quantity:      w.Quantity,
			ExtendedValue: w.Extended,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	var persisted []domain.AwardedLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Upsert(ctx, tx, rows); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrStorageConflict
			}
			return err
		}

		if err := s.lotRepo.UpdateStatus(ctx, tx, lot.ID, lotdomain.LotStatusAwarded, now); err != nil {
			return err
		}

		stored, err := s.repo.ListByRoundAndItems(ctx, tx, round.ID, itemIDs)
		if err != nil {
			return err
		}
		if len(stored) != len(winners) {
			return domain.ErrStorageConflict
		}
		for _, row := range stored {
			w, ok := byItem[row.LineItemID]
			if !ok || row.LotID != lot.ID || row.BuyerID != w.BuyerID || row.OfferID != w.OfferID {
				return domain.ErrStorageConflict
			}
		}
		persisted = stored
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.log.Warn("award failed",
			zap.String("lot_id", lot.ID.String()),
			zap.String("round_id", round.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("awarded line items",
		zap.String("lot_id", lot.ID.String()),
		zap.String("round_id", round.ID.String()),
		zap.Int("lines", len(persisted)),
	)
	return persisted, nil
}

func (s *Service) List(ctx context.Context, lotID snowflake.ID, roundID *snowflake.ID) ([]domain.AwardedLine, error) {
	return s.repo.List(ctx, s.db, lotID, roundID)
}

func (s *Service) ListForBuyer(ctx context.Context, lotID, buyerID, roundID snowflake.ID) ([]domain.AwardedLine, error) {
	return s.repo.ListForBuyer(ctx, s.db, lotID, buyerID, roundID)
}

func (s *Service) AwardedLineItemIDs(ctx context.Context, lotID snowflake.ID, exceptRoundID *snowflake.ID) (map[snowflake.ID]struct{}, error) {
	ids, err := s.repo.AwardedLineItemIDs(ctx, s.db, lotID, exceptRoundID)
	if err != nil {
		return nil, err
	}
	set := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
