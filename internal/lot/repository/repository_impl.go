package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/pkg/db/option"
	"github.com/smallbiznis/lotbid/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lot *domain.Lot) error {
	return repository.ProvideStore[domain.Lot](db).Create(ctx, lot)
}

func (r *repo) InsertLineItems(ctx context.Context, db *gorm.DB, items []*domain.LineItem) error {
	return repository.ProvideStore[domain.LineItem](db).BatchCreate(ctx, items)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Lot, error) {
	return repository.ProvideStore[domain.Lot](db).FindOne(ctx, &domain.Lot{ID: id})
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]domain.LineItem, error) {
	items, err := repository.ProvideStore[domain.LineItem](db).Find(ctx,
		&domain.LineItem{LotID: lotID},
		option.WithOrder("position asc, id asc"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.LotStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE lots SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	).Error
}
