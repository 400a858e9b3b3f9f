package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/invitation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invitation, error) {
	return r.first(db.WithContext(ctx).Where("token = ?", token))
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	return r.first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) BackfillRound(ctx context.Context, db *gorm.DB, id, roundID snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND round_id IS NULL", id).
		Updates(map[string]any{"round_id": roundID, "updated_at": at})
	return result.RowsAffected, result.Error
}

func (r *repo) first(stmt *gorm.DB) (*domain.Invitation, error) {
	var invite domain.Invitation
	if err := stmt.First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}
