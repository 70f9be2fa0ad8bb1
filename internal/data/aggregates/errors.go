package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	catalog "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

// MapError maps infrastructure failures into catalog error codes. Errors that
// already carry a catalog code pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var catErr *catalog.Error
	if errors.As(err, &catErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return catalog.Wrap(catalog.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return catalog.Wrap(catalog.CodeConflict, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return catalog.Wrap(catalog.CodeReferentialViolation, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return catalog.Wrap(catalog.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return catalog.Wrap(catalog.CodeConflict, op, err) // unique_violation
		case "23503":
			return catalog.Wrap(catalog.CodeReferentialViolation, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return catalog.Wrap(catalog.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return catalog.Wrap(catalog.CodeConflict, op, err)
	case strings.Contains(msg, "foreign key constraint failed"):
		return catalog.Wrap(catalog.CodeReferentialViolation, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "serialization"):
		return catalog.Wrap(catalog.CodeRetryable, op, err)
	default:
		return catalog.Wrap(catalog.CodeStoreFailure, op, err)
	}
}
