package db

import (
	"context"
	"database/sql"
)

const listSettingsQuery = `SELECT name, value FROM settings`

var settingColumns = []string{"name", "value"}

func (db *DB) ListSettings(ctx context.Context) ([]Setting, error) {
	return queryAll(ctx, db, "settings", listSettingsQuery, settingColumns, func(rows *sql.Rows, s *Setting) error {
		return rows.Scan(&s.Name, &s.Value)
	})
}
