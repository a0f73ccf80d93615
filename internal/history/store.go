// Package history persists locate runs and their finds to a local SQLite
// database. Recording is opt-in; plain runs never touch the store.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run represents a single recorded locate run
type Run struct {
	ID         int64
	RunID      string
	WorkingDir string
	StartedAt  time.Time
	MatchCount int
	DurationMs int64
}

// Find represents one reported match within a run
type Find struct {
	ID        int64
	RunID     string
	Pattern   string
	Path      string
	ReadError string
	CreatedAt time.Time
}

// Stats summarizes the recorded history
type Stats struct {
	TotalRuns     int
	TotalFinds    int
	DistinctPaths int
	LastRunAt     time.Time
	AvgDurationMs float64
}

// Store manages the SQLite database for find history
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access.
	// busy_timeout must come first so the remaining pragmas wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sqlStr string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sqlStr)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema initializes the database schema using migrations
func (s *Store) initSchema() error {
	ctx := context.Background()

	if err := s.ApplyMigrations(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// tableExists checks if a table exists in the database
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	err := s.db.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// indexExists checks if an index exists in the database
func (s *Store) indexExists(indexName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`
	err := s.db.QueryRow(query, indexName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check index existence: %w", err)
	}
	return count > 0, nil
}

// RecordRun inserts one run row plus a find row per reported match, in a
// single transaction, and returns the generated run id. When maxRuns > 0,
// runs beyond the newest maxRuns (and their finds) are pruned in the same
// transaction.
func (s *Store) RecordRun(ctx context.Context, workingDir string, durationMs int64, finds []Find, maxRuns int) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, working_dir, match_count, duration_ms) VALUES (?, ?, ?, ?)`,
		runID, workingDir, len(finds), durationMs,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, find := range finds {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO finds (run_id, pattern, path, read_error) VALUES (?, ?, ?, ?)`,
			runID, find.Pattern, find.Path, find.ReadError,
		)
		if err != nil {
			return "", fmt.Errorf("insert find: %w", err)
		}
	}

	if maxRuns > 0 {
		if err := pruneRunsTx(ctx, tx, maxRuns); err != nil {
			return "", fmt.Errorf("prune runs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}

	return runID, nil
}

// pruneRunsTx drops the oldest runs beyond keep, finds first so no orphaned
// find rows survive.
func pruneRunsTx(ctx context.Context, tx *sql.Tx, keep int) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM finds WHERE run_id IN (
			SELECT run_id FROM runs
			WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)
		)`, keep)
	if err != nil {
		return fmt.Errorf("delete old finds: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("delete old runs: %w", err)
	}

	return nil
}

// RecentFinds retrieves finds ordered most recent first. A limit <= 0
// returns everything.
func (s *Store) RecentFinds(ctx context.Context, limit int) ([]*Find, error) {
	query := `SELECT id, run_id, pattern, path, read_error, created_at
		FROM finds
		ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query finds: %w", err)
	}
	defer rows.Close()

	return scanFinds(rows)
}

// FindsForPath retrieves every recorded find of the given path, most recent
// first.
func (s *Store) FindsForPath(ctx context.Context, path string) ([]*Find, error) {
	query := `SELECT id, run_id, pattern, path, read_error, created_at
		FROM finds
		WHERE path = ?
		ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("query finds for path: %w", err)
	}
	defer rows.Close()

	return scanFinds(rows)
}

// scanFinds drains a finds result set.
func scanFinds(rows *sql.Rows) ([]*Find, error) {
	var finds []*Find
	for rows.Next() {
		find := &Find{}
		var readError sql.NullString
		if err := rows.Scan(&find.ID, &find.RunID, &find.Pattern, &find.Path, &readError, &find.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan find row: %w", err)
		}
		if readError.Valid {
			find.ReadError = readError.String
		}
		finds = append(finds, find)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate find rows: %w", err)
	}

	return finds, nil
}

// RecentRuns retrieves runs ordered most recent first. A limit <= 0 returns
// everything.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, run_id, working_dir, started_at, match_count, duration_ms
		FROM runs
		ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.RunID, &run.WorkingDir, &run.StartedAt, &run.MatchCount, &run.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// GetStats summarizes the recorded history
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(duration_ms), 0) FROM runs`,
	).Scan(&stats.TotalRuns, &stats.AvgDurationMs)
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT path) FROM finds`,
	).Scan(&stats.TotalFinds, &stats.DistinctPaths)
	if err != nil {
		return nil, fmt.Errorf("query find stats: %w", err)
	}

	if stats.TotalRuns > 0 {
		var lastRun time.Time
		err = s.db.QueryRowContext(ctx,
			`SELECT started_at FROM runs ORDER BY id DESC LIMIT 1`,
		).Scan(&lastRun)
		if err != nil {
			return nil, fmt.Errorf("query last run: %w", err)
		}
		stats.LastRunAt = lastRun
	}

	return stats, nil
}

// DeleteFindsForPath removes recorded finds for a single path. The owning
// run rows are kept.
func (s *Store) DeleteFindsForPath(ctx context.Context, path string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM finds WHERE path = ?`, path)
	if err != nil {
		return 0, fmt.Errorf("delete finds for path: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted finds: %w", err)
	}

	return deleted, nil
}

// ClearAll deletes all recorded runs and finds, returning the number of rows
// removed.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	findsResult, err := tx.ExecContext(ctx, `DELETE FROM finds`)
	if err != nil {
		return 0, fmt.Errorf("delete finds: %w", err)
	}
	findsDeleted, err := findsResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted finds: %w", err)
	}

	runsResult, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	runsDeleted, err := runsResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}

	return findsDeleted + runsDeleted, nil
}
