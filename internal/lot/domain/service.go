package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lot *Lot) error
	InsertLineItems(ctx context.Context, db *gorm.DB, items []*LineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lot, error)
	ListLineItems(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]LineItem, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status LotStatus, at time.Time) error
}

type Service interface {
	// Get returns the lot if it belongs to the organization in ctx.
	Get(ctx context.Context, id snowflake.ID) (Lot, error)
	LineItems(ctx context.Context, lotID snowflake.ID) ([]LineItem, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrLotNotFound         = errors.New("lot_not_found")
)
