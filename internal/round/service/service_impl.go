package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/lotbid/internal/audit/domain"
	"github.com/smallbiznis/lotbid/internal/clock"
	"github.com/smallbiznis/lotbid/internal/observability/metrics"
	"github.com/smallbiznis/lotbid/internal/round/domain"
	"github.com/smallbiznis/lotbid/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("round.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) EnsureRounds(ctx context.Context, lotID snowflake.ID) ([]domain.Round, domain.Ref, error) {
	if lotID == 0 {
		return nil, domain.Ref{}, domain.ErrInvalidLotID
	}

	rounds, err := s.repo.ListByLot(ctx, s.db, lotID)
	if err != nil {
		return nil, domain.Ref{}, err
	}

	if len(rounds) == 0 {
		first := &domain.Round{
			ID:          s.genID.Generate(),
			LotID:       lotID,
			RoundNumber: 1,
			Scope:       domain.ScopeAll,
			Status:      domain.StatusLive,
			CreatedAt:   s.clock.Now(),
		}
		created, err := s.repo.InsertIfAbsent(ctx, s.db, first)
		if err != nil {
			return nil, domain.Ref{}, err
		}
		if created {
			s.metrics.RecordRoundCreated(ctx, string(domain.ScopeAll))
			s.log.Info("created initial round",
				zap.String("lot_id", lotID.String()),
				zap.String("round_id", first.ID.String()),
			)
		}

		// Re-read so a concurrent creator's row wins over ours.
		rounds, err = s.repo.ListByLot(ctx, s.db, lotID)
		if err != nil {
			return nil, domain.Ref{}, err
		}
	}

	current, err := domain.Current(rounds)
	if err != nil {
		return nil, domain.Ref{}, err
	}
	return rounds, current, nil
}

func (s *Service) List(ctx context.Context, lotID snowflake.ID) ([]domain.Round, error) {
	if lotID == 0 {
		return nil, domain.ErrInvalidLotID
	}
	return s.repo.ListByLot(ctx, s.db, lotID)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Round, error) {
	round, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Round{}, err
	}
	if round == nil {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	return *round, nil
}

func (s *Service) OpenRound(ctx context.Context, lotID snowflake.ID, scope domain.Scope) (domain.Round, error) {
	if lotID == 0 {
		return domain.Round{}, domain.ErrInvalidLotID
	}
	if scope == "" {
		scope = domain.ScopeUnsold
	}
	if !scope.Valid() {
		return domain.Round{}, domain.ErrInvalidScope
	}

	var opened domain.Round
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()

		maxNumber, err := s.repo.MaxNumber(ctx, tx, lotID)
		if err != nil {
			return err
		}
		closed, err := s.repo.CloseLive(ctx, tx, lotID, now)
		if err != nil {
			return err
		}

		opened = domain.Round{
			ID:          s.genID.Generate(),
			LotID:       lotID,
			RoundNumber: maxNumber + 1,
			Scope:       scope,
			Status:      domain.StatusLive,
			CreatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &opened); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrRoundConflict
			}
			return err
		}

		targetID := opened.ID.String()
		return s.audit.AuditLog(ctx, tx, nil, auditdomain.ActionRoundOpen, auditdomain.TargetTypeRound, &targetID, map[string]any{
			"lot_id":        lotID.String(),
			"round_number":  opened.RoundNumber,
			"scope":         string(scope),
			"closed_rounds": closed,
		})
	})
	if err != nil {
		return domain.Round{}, err
	}

	s.metrics.RecordRoundCreated(ctx, string(scope))
	s.log.Info("opened round",
		zap.String("lot_id", lotID.String()),
		zap.String("round_id", opened.ID.String()),
		zap.Int("round_number", opened.RoundNumber),
		zap.String("scope", string(scope)),
	)
	return opened, nil
}

// CloseRound is idempotent; closing a closed round returns it unchanged.
func (s *Service) CloseRound(ctx context.Context, id snowflake.ID) (domain.Round, error) {
	var closed domain.Round
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		round, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if round == nil {
			return domain.ErrRoundNotFound
		}
		closed = *round
		if round.Status == domain.StatusClosed {
			return nil
		}

		now := s.clock.Now()
		if _, err := s.repo.Close(ctx, tx, id, now); err != nil {
			return err
		}
		closed.Status = domain.StatusClosed
		closed.ClosedAt = &now

		targetID := id.String()
		return s.audit.AuditLog(ctx, tx, nil, auditdomain.ActionRoundClose, auditdomain.TargetTypeRound, &targetID, map[string]any{
			"lot_id":       round.LotID.String(),
			"round_number": round.RoundNumber,
		})
	})
	if err != nil {
		return domain.Round{}, err
	}
	return closed, nil
}
