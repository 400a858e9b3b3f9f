package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offer *Offer) error
	InsertLines(ctx context.Context, db *gorm.DB, lines []*OfferLine) error
	FindByID(ctx context.Context, db *gorm.DB, lotID, id snowflake.ID) (*Offer, error)
	ListByLot(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]Offer, error)
	ListLines(ctx context.Context, db *gorm.DB, offerIDs []snowflake.ID) ([]OfferLine, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status OfferStatus, at time.Time) error
	// Accept marks the offer accepted unless it was rejected. It reports the rows changed.
	Accept(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error)
	// RejectOthers rejects every offer of the lot except keepID that is still new.
	RejectOthers(ctx context.Context, db *gorm.DB, lotID, keepID snowflake.ID, at time.Time) (int64, error)
	// FindLatestForBuyer returns the buyer's newest offer, bound to roundID when it is not nil.
	FindLatestForBuyer(ctx context.Context, db *gorm.DB, lotID, buyerID snowflake.ID, roundID *snowflake.ID) (*Offer, error)
}

var (
	ErrOfferNotFound = errors.New("offer_not_found")
)
