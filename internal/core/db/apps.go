package db

import (
	"context"
	"database/sql"
)

const listAppsQuery = `
	SELECT apps.name, apps.icon, apps.url, apps.server_id, servers.name AS server_name
	FROM apps
	INNER JOIN servers ON apps.server_id = servers.id
`

var appColumns = []string{"name", "icon", "url", "server_id", "server_name"}

// ListApps returns every app together with the name of its server.
func (db *DB) ListApps(ctx context.Context) ([]App, error) {
	return queryAll(ctx, db, "apps", listAppsQuery, appColumns, func(rows *sql.Rows, a *App) error {
		return rows.Scan(&a.Name, &a.Icon, &a.URL, &a.ServerID, &a.ServerName)
	})
}
