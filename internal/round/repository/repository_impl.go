package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/round/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListByLot(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]domain.Round, error) {
	var rounds []domain.Round
	err := db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("round_number desc").
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Round, error) {
	var round domain.Round
	err := db.WithContext(ctx).Where("id = ?", id).First(&round).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &round, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, round *domain.Round) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lot_id"}, {Name: "round_number"}},
			DoNothing: true,
		}).
		Create(round)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, round *domain.Round) error {
	return db.WithContext(ctx).Create(round).Error
}

func (r *repo) MaxNumber(ctx context.Context, db *gorm.DB, lotID snowflake.ID) (int, error) {
	var maxNumber sql.NullInt64
	err := db.WithContext(ctx).
		Model(&domain.Round{}).
		Select("MAX(round_number)").
		Where("lot_id = ?", lotID).
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return int(maxNumber.Int64), nil
}

func (r *repo) CloseLive(ctx context.Context, db *gorm.DB, lotID snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE rounds SET status = ?, closed_at = ? WHERE lot_id = ? AND status = ?`,
		domain.StatusClosed,
		at,
		lotID,
		domain.StatusLive,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Close(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE rounds SET status = ?, closed_at = ? WHERE id = ? AND status <> ?`,
		domain.StatusClosed,
		at,
		id,
		domain.StatusClosed,
	)
	return result.RowsAffected, result.Error
}
