package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	msg := err.Error()
	switch {
	// PostgreSQL when the driver error is flattened
	case strings.Contains(msg, "duplicate key value violates unique constraint"):
		return true
	// MySQL 1062
	case strings.Contains(msg, "Error 1062"):
		return true
	// SQLite 2067
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return true
	}

	return false
}
