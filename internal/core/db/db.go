package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	neturl "net/url"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Supported database/sql driver names.
const (
	DriverSQLite3 = "sqlite3" // mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverLibSQL  = "libsql"  // tursodatabase/libsql-client-go (remote)
)

var remoteSchemes = []string{"libsql://", "https://", "http://", "wss://", "ws://"}

// ErrUnsupportedURL is returned for database URLs no linked driver can open.
var ErrUnsupportedURL = errors.New("unsupported database URL")

type DB struct {
	db     *sql.DB
	logger *zap.Logger
}

// Options configures Open.
type Options struct {
	// Driver forces a driver name. Empty picks one from the URL.
	Driver string
	// Token authenticates against a remote libSQL server.
	Token  string
	Logger *zap.Logger
}

// Open opens the database at url. Plain paths, "file:" URLs and ":memory:" are
// local SQLite databases. libsql://, http(s):// and ws(s):// URLs are remote
// libSQL servers, authenticated with opts.Token.
func Open(url string, opts Options) (*DB, error) {
	driver, dsn, err := resolveDriver(url, opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dsn) {
		// Every new connection to :memory: is a separate, empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{db: sqlDB, logger: logger}, nil
}

// NewSQLiteDB opens a local SQLite database with the default driver.
func NewSQLiteDB(path string) (*DB, error) {
	return Open(path, Options{})
}

func resolveDriver(url string, opts Options) (string, string, error) {
	if IsRemote(url) {
		if opts.Driver != "" && opts.Driver != DriverLibSQL {
			return "", "", fmt.Errorf("%w: driver %q cannot open remote database %q", ErrUnsupportedURL, opts.Driver, redact(url))
		}
		dsn, err := remoteDSN(url, opts.Token)
		if err != nil {
			return "", "", err
		}
		return DriverLibSQL, dsn, nil
	}

	switch opts.Driver {
	case "", DriverSQLite3:
		return DriverSQLite3, url, nil
	case DriverSQLite:
		return DriverSQLite, url, nil
	default:
		return "", "", fmt.Errorf("%w: unknown driver %q", ErrUnsupportedURL, opts.Driver)
	}
}

// IsRemote reports whether url points at a remote libSQL server.
func IsRemote(url string) bool {
	lower := strings.ToLower(url)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// remoteDSN adds token to url as the authToken query parameter. A token
// already in the URL is kept when token is empty.
func remoteDSN(url, token string) (string, error) {
	u, err := neturl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("%w: malformed remote database URL %q", ErrUnsupportedURL, redact(url))
	}
	if token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// redact strips the query string, which may carry an auth token.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Migrate applies the embedded bootstrap schema. It is meant for local
// development databases; the production schema is managed elsewhere.
func (db *DB) Migrate() error {
	// Create migrations tracking table if it doesn't exist
	_, err := db.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migrations = append(migrations, entry.Name())
	}

	sort.Strings(migrations)

	for _, migration := range migrations {
		version := strings.TrimSuffix(migration, ".sql")

		var exists bool
		if err := db.db.QueryRow(`
		    SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = ?)
		`, version).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check if migration has been applied: %w", err)
		}
		if exists {
			db.logger.Debug("migration already applied", zap.String("version", version))
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + migration)
		if err != nil {
			return fmt.Errorf("failed to read migration file: %w", err)
		}

		tx, err := db.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", version, err)
		}

		if _, err := tx.Exec(`
		    INSERT INTO schema_migrations (version) VALUES (?)
		`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to mark migration as applied: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		db.logger.Info("migration applied", zap.String("version", version))
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
