package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lotbid/internal/award/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rows []*domain.AwardedLine) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "round_id"}, {Name: "line_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"lot_id",
				"buyer_id",
				"offer_id",
				"currency",
				"unit_price",
				"quantity",
				"extended_value",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *repo) ListByRoundAndItems(ctx context.Context, db *gorm.DB, roundID snowflake.ID, lineItemIDs []snowflake.ID) ([]domain.AwardedLine, error) {
	if len(lineItemIDs) == 0 {
		return nil, nil
	}
	var lines []domain.AwardedLine
	err := db.WithContext(ctx).
		Where("round_id = ? AND line_item_id IN ?", roundID, lineItemIDs).
		Order("line_item_id asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, lotID snowflake.ID, roundID *snowflake.ID) ([]domain.AwardedLine, error) {
	stmt := db.WithContext(ctx).Where("lot_id = ?", lotID)
	if roundID != nil {
		stmt = stmt.Where("round_id = ?", *roundID)
	}

	var lines []domain.AwardedLine
	if err := stmt.Order("round_id asc, line_item_id asc").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) ListForBuyer(ctx context.Context, db *gorm.DB, lotID, buyerID, roundID snowflake.ID) ([]domain.AwardedLine, error) {
	var lines []domain.AwardedLine
	err := db.WithContext(ctx).
		Where("lot_id = ? AND buyer_id = ? AND round_id = ?", lotID, buyerID, roundID).
		Order("line_item_id asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) AwardedLineItemIDs(ctx context.Context, db *gorm.DB, lotID snowflake.ID, exceptRoundID *snowflake.ID) ([]snowflake.ID, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.AwardedLine{}).
		Where("lot_id = ?", lotID)
	if exceptRoundID != nil {
		stmt = stmt.Where("round_id <> ?", *exceptRoundID)
	}

	var ids []snowflake.ID
	if err := stmt.Distinct().Pluck("line_item_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
