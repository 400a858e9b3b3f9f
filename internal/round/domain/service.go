package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListByLot returns rounds ordered by round number descending.
	ListByLot(ctx context.Context, db *gorm.DB, lotID snowflake.ID) ([]Round, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Round, error)
	// InsertIfAbsent inserts round unless (lot_id, round_number) exists. It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, round *Round) (bool, error)
	Insert(ctx context.Context, db *gorm.DB, round *Round) error
	MaxNumber(ctx context.Context, db *gorm.DB, lotID snowflake.ID) (int, error)
	CloseLive(ctx context.Context, db *gorm.DB, lotID snowflake.ID, at time.Time) (int64, error)
	Close(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error)
}

type Service interface {
	// EnsureRounds returns the lot's rounds, newest first, creating round 1 when there are none.
	EnsureRounds(ctx context.Context, lotID snowflake.ID) ([]Round, Ref, error)
	List(ctx context.Context, lotID snowflake.ID) ([]Round, error)
	Get(ctx context.Context, id snowflake.ID) (Round, error)
	// OpenRound closes the live round and starts the next one.
	OpenRound(ctx context.Context, lotID snowflake.ID, scope Scope) (Round, error)
	CloseRound(ctx context.Context, id snowflake.ID) (Round, error)
}

var (
	ErrNoRound       = errors.New("no_round")
	ErrRoundNotFound = errors.New("round_not_found")
	ErrRoundConflict = errors.New("round_conflict")
	ErrInvalidScope  = errors.New("invalid_scope")
	ErrInvalidLotID  = errors.New("invalid_lot_id")
	ErrAlreadyClosed = errors.New("round_already_closed")
)
