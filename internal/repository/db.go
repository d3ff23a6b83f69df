package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/technova-hub/extraction-api/internal/common"
)

// schemaStatements is applied on every open; every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS extractions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		filename        TEXT NOT NULL,
		file_size       INTEGER,
		mime_type       TEXT,
		extraction_date TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'success',
		data_json       TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extractions_filename ON extractions(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_extractions_date ON extractions(extraction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_extractions_status ON extractions(status)`,
}

// Open opens (or creates) the SQLite database at cfg.Path and applies the schema.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("opening database", "path", cfg.Path)

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		cfg.Path, cfg.BusyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}

	// SQLite allows one writer at a time; serialize all access through a
	// single connection instead of relying on busy retries.
	db.SetMaxOpenConns(1)

	if cfg.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.HealthTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, err
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("failed to apply schema", "error", err)
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	logger.Info("database ready", "path", cfg.Path)
	return db, nil
}

// Close closes the database connection gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database closed")
}
