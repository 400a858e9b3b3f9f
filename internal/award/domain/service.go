package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/optimizer"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert writes rows keyed by (round_id, line_item_id), overwriting existing awards.
	Upsert(ctx context.Context, db *gorm.DB, rows []*AwardedLine) error
	ListByRoundAndItems(ctx context.Context, db *gorm.DB, roundID snowflake.ID, lineItemIDs []snowflake.ID) ([]AwardedLine, error)
	List(ctx context.Context, db *gorm.DB, lotID snowflake.ID, roundID *snowflake.ID) ([]AwardedLine, error)
	ListForBuyer(ctx context.Context, db *gorm.DB, lotID, buyerID, roundID snowflake.ID) ([]AwardedLine, error)
	// AwardedLineItemIDs returns line items awarded in any round of the lot except exceptRoundID.
	AwardedLineItemIDs(ctx context.Context, db *gorm.DB, lotID snowflake.ID, exceptRoundID *snowflake.ID) ([]snowflake.ID, error)
}

type Service interface {
	Award(ctx context.Context, lot lotdomain.Lot, round rounddomain.Ref, winners []optimizer.Winner) ([]AwardedLine, error)
	List(ctx context.Context, lotID snowflake.ID, roundID *snowflake.ID) ([]AwardedLine, error)
	ListForBuyer(ctx context.Context, lotID, buyerID, roundID snowflake.ID) ([]AwardedLine, error)
	AwardedLineItemIDs(ctx context.Context, lotID snowflake.ID, exceptRoundID *snowflake.ID) (map[snowflake.ID]struct{}, error)
}

var (
	ErrNoRoundAvailable = errors.New("no_round_available")
	ErrNothingToAward   = errors.New("nothing_to_award")
	ErrStorageConflict  = errors.New("storage_conflict")
	ErrDuplicateWinner  = errors.New("duplicate_winner")
)
