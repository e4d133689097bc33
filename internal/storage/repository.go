package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hesabdari/internal/log"
	"hesabdari/internal/slot"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a slot stored as one row of the slots table. Several
// repositories with different names can share a database file.
type SQLiteRepository struct {
	db     *sql.DB
	name   string
	logger *log.Logger
}

// NewSQLiteRepository opens (and migrates) the database at dbPath and binds
// the repository to the slot called name. A nil logger discards output.
func NewSQLiteRepository(dbPath, name string, logger *log.Logger) (*SQLiteRepository, error) {
	if name == "" {
		return nil, errors.New("slot name is empty")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of the picture.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite slot ready", "db_path", dbPath, "slot", name, "schema_version", version)

	return &SQLiteRepository{db: db, name: name, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Name returns the slot name the repository is bound to.
func (r *SQLiteRepository) Name() string {
	return r.name
}

// Read implements slot.Reader
func (r *SQLiteRepository) Read(ctx context.Context) ([]byte, error) {
	var blob string
	err := r.db.QueryRowContext(ctx, `SELECT blob FROM slots WHERE name = ?`, r.name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, slot.ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", r.name, err)
	}
	return []byte(blob), nil
}

// Write implements slot.Writer
func (r *SQLiteRepository) Write(ctx context.Context, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slots (name, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = CURRENT_TIMESTAMP`,
		r.name, string(blob))
	if err != nil {
		return fmt.Errorf("write slot %s: %w", r.name, err)
	}
	r.logger.DebugContext(ctx, "Slot written to SQLite", "slot", r.name, "bytes", len(blob))
	return nil
}

// Clear implements slot.Clearer
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, r.name); err != nil {
		return fmt.Errorf("clear slot %s: %w", r.name, err)
	}
	r.logger.InfoContext(ctx, "Slot cleared", "slot", r.name)
	return nil
}

// Ping checks the database connection, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
