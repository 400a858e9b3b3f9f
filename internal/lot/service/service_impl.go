package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("lot.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Lot, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Lot{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.Lot{}, domain.ErrInvalidID
	}

	lot, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Lot{}, err
	}
	if lot == nil || lot.OrgID != orgID {
		return domain.Lot{}, domain.ErrLotNotFound
	}
	return *lot, nil
}

func (s *Service) LineItems(ctx context.Context, lotID snowflake.ID) ([]domain.LineItem, error) {
	if lotID == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListLineItems(ctx, s.db, lotID)
}
