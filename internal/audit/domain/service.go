package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

type ListAuditLogRequest struct {
	Action     string
	TargetType string
	TargetID   string
	Limit      int
}

type Service interface {
	// AuditLog records an entry using db, so callers can write it inside their own transaction.
	AuditLog(ctx context.Context, db *gorm.DB, orgID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) ([]AuditLog, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAction       = errors.New("invalid_action")
)
