package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	catalog "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

func TestMapError(t *testing.T) {
	already := catalog.ReferentialViolation("op", "missing product")

	cases := []struct {
		name string
		err  error
		want catalog.ErrorCode
	}{
		{"not found", gorm.ErrRecordNotFound, catalog.CodeNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, catalog.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, catalog.CodeReferentialViolation},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, catalog.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: product.external_id"), catalog.CodeConflict},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), catalog.CodeReferentialViolation},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), catalog.CodeRetryable},
		{"other", errors.New("disk I/O error"), catalog.CodeStoreFailure},
		{"passthrough", already, catalog.CodeReferentialViolation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("test.op", tc.err)
			if code := catalog.CodeOf(got); code != tc.want {
				t.Fatalf("MapError code: got=%q want=%q (err=%v)", code, tc.want, got)
			}
		})
	}
	if MapError("op", nil) != nil {
		t.Fatalf("MapError(nil): expected nil")
	}
}
