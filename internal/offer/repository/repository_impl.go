package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/offer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, offer *domain.Offer) error {
	return db.WithContext(ctx).Create(offer).Error
}

func (r *repo) InsertLines(ctx context.Context, db *gorm.DB, lines []*domain.OfferLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(lines).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, lotID, id snowflake.ID) (*domain.Offer, error) {
	var offer domain.Offer
	err := db.WithContext(ctx).
		Where("lot_id = ? AND id = ?", lotID, id).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repo) ListByLot(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at asc, id asc").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repo) ListLines(ctx context.Context, db *gorm.DB, offerIDs []snowflake.ID) ([]domain.OfferLine, error) {
	if len(offerIDs) == 0 {
		return nil, nil
	}
	var lines []domain.OfferLine
	err := db.WithContext(ctx).
		Where("offer_id IN ?", offerIDs).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.OfferStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	).Error
}

func (r *repo) Accept(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE offers SET status = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		domain.OfferStatusAccepted,
		at,
		id,
		domain.OfferStatusRejected,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) RejectOthers(ctx context.Context, db *gorm.DB, lotID, keepID snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE offers SET status = ?, updated_at = ?
		 WHERE lot_id = ? AND id <> ? AND status = ?`,
		domain.OfferStatusRejected,
		at,
		lotID,
		keepID,
		domain.OfferStatusNew,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindLatestForBuyer(ctx context.Context, db *gorm.DB, lotID, buyerID snowflake.ID, roundID *snowflake.ID) (*domain.Offer, error) {
	stmt := db.WithContext(ctx).
		Where("lot_id = ? AND buyer_id = ?", lotID, buyerID)
	if roundID != nil {
		stmt = stmt.Where("round_id = ?", *roundID)
	}

	var offer domain.Offer
	err := stmt.Order("created_at desc, id desc").First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}
