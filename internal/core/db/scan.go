package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrColumnMismatch is returned when a query's result columns differ from the
// columns the record decoder expects.
var ErrColumnMismatch = errors.New("column mismatch")

// queryAll runs query and decodes every row with scan. The result columns
// must match columns by name and position. An empty result is a non-nil,
// zero-length slice.
func queryAll[T any](ctx context.Context, db *DB, what, query string, columns []string, scan func(*sql.Rows, *T) error) ([]T, error) {
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			db.logger.Warn("failed to close rows", zap.String("query", what), zap.Error(err))
		}
	}()

	got, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s columns: %w", what, err)
	}
	if err := checkColumns(got, columns); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}

	out := make([]T, 0)
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	return out, nil
}

func checkColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: got %d columns %v, want %v", ErrColumnMismatch, len(got), got, want)
	}
	for i := range want {
		if !strings.EqualFold(got[i], want[i]) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrColumnMismatch, i, got[i], want[i])
		}
	}
	return nil
}
