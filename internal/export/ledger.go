package export

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current ledger schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger was written by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one exported file.
type Record struct {
	ID         int64     `json:"id"`
	ItemID     string    `json:"item_id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	ExportedAt time.Time `json:"exported_at"`
}

// Ledger persists export records in SQLite.
type Ledger struct {
	db   *sql.DB
	path string
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ledger := &Ledger{db: db, path: path}
	if err := ledger.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// Path returns the database location.
func (l *Ledger) Path() string { return l.path }

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return l.createSchema(ctx)
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: ledger has version %d, expected %d (delete %s to reset it)",
			ErrSchemaMismatch, version, schemaVersion, l.path)
	}
	return nil
}

func (l *Ledger) createSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Add stores rec and returns it with its assigned id.
func (l *Ledger) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.ExportedAt.IsZero() {
		rec.ExportedAt = time.Now()
	}
	rec.ExportedAt = rec.ExportedAt.UTC()
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO exports (item_id, name, path, width, height, exported_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ItemID, rec.Name, rec.Path, rec.Width, rec.Height,
		rec.ExportedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert export record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("read export id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// List returns the most recent records first. A limit of zero or less returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	query := selectExports + " ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return l.query(ctx, query, args...)
}

// ForItem returns records for one item id, most recent first.
func (l *Ledger) ForItem(ctx context.Context, itemID string) ([]Record, error) {
	return l.query(ctx, selectExports+" WHERE item_id = ? ORDER BY id DESC", itemID)
}

const selectExports = `SELECT id, item_id, name, path, width, height, exported_at FROM exports`

func (l *Ledger) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			exportedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.Name, &rec.Path, &rec.Width, &rec.Height, &exportedAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, exportedAt); err == nil {
			rec.ExportedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return records, nil
}
