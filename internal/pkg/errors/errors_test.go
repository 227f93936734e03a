package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm_sentinel", gorm.ErrDuplicatedKey, true},
		{"wrapped_gorm_sentinel", fmt.Errorf("persist row: %w", gorm.ErrDuplicatedKey), true},
		{"pg_unique_violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped_pg_unique_violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pg_other_code", &pgconn.PgError{Code: "23503"}, false},
		{"message_fallback", errors.New(`ERROR: duplicate key value violates unique constraint "idx"`), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKey(tc.err); got != tc.want {
				t.Fatalf("IsDuplicateKey(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
