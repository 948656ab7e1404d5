package db

import (
	"context"
	"database/sql"
)

const listServersQuery = `SELECT id, name, host, port FROM servers`

var serverColumns = []string{"id", "name", "host", "port"}

func (db *DB) ListServers(ctx context.Context) ([]Server, error) {
	return queryAll(ctx, db, "servers", listServersQuery, serverColumns, func(rows *sql.Rows, s *Server) error {
		return rows.Scan(&s.ID, &s.Name, &s.Host, &s.Port)
	})
}
