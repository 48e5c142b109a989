package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/courtlens/casestatus-api/internal/models"
)

// SQLite is a Store persisted to disk, so cached lookups survive a process
// restart within their TTL. The cache stays per-instance; there is no
// cross-instance coherency.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) a SQLite-backed store at dbPath.
func NewSQLite(dbPath string, logger *slog.Logger) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	logger.Info("SQLite lookup cache initialized", "path", dbPath)
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		diary_no   TEXT NOT NULL,
		year       TEXT NOT NULL,
		payload    BLOB NOT NULL,
		expires_at TEXT NOT NULL,
		PRIMARY KEY (diary_no, year)
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_expires_at ON lookups(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Get(ctx context.Context, key models.LookupKey) ([]byte, bool, error) {
	var payload []byte
	var expiresAt string

	row := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM lookups WHERE diary_no = ? AND year = ?`,
		key.DiaryNumber, key.Year,
	)
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || time.Now().After(exp) {
		// Expired (or unreadable) entries are treated as absent and removed
		// opportunistically.
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM lookups WHERE diary_no = ? AND year = ?`,
			key.DiaryNumber, key.Year,
		)
		return nil, false, nil
	}

	return payload, true, nil
}

func (s *SQLite) Set(ctx context.Context, key models.LookupKey, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	query := `
	INSERT INTO lookups (diary_no, year, payload, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(diary_no, year) DO UPDATE SET
		payload = excluded.payload,
		expires_at = excluded.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		key.DiaryNumber, key.Year, payload,
		time.Now().Add(ttl).Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}

	s.logger.Debug("lookup cached", "diary_no", key.DiaryNumber, "year", key.Year)
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
