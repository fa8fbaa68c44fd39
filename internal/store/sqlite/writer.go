package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trendsv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the SQLite history store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/history.db"
}

// Store persists canonical daily series keyed by dataset name. It
// implements model.HistoryStore.
//
// Every save replaces the whole series for a name inside one transaction.
// There is no cross-request locking: two writers saving the same name race
// and the later commit wins.
type Store struct {
	db *sql.DB
}

var (
	_ model.HistoryStore  = (*Store)(nil)
	_ model.CoverageStore = (*Store)(nil)
)

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database in WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer connection; WAL lets readers proceed meanwhile.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite: opened history store", "path", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS series (
			name         TEXT    PRIMARY KEY,
			structure    TEXT    NOT NULL,
			updated_at   INTEGER NOT NULL,
			full_history INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS series_points (
			name   TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			value  REAL    NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			volume REAL,
			PRIMARY KEY (name, ts)
		);
	`)
	if err != nil {
		return err
	}
	// Databases created before full_history existed.
	if _, err := db.Exec(`ALTER TABLE series ADD COLUMN full_history INTEGER NOT NULL DEFAULT 0`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column") {
		return err
	}
	return nil
}

// SaveHistoricalData replaces the stored series for name with s.
func (s *Store) SaveHistoricalData(ctx context.Context, name string, series model.Series) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM series_points WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite clear %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO series (name, structure, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET structure = excluded.structure, updated_at = excluded.updated_at
	`, name, series.Kind.String(), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("sqlite upsert %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO series_points (name, ts, value, open, high, low, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	ohlcv := series.Kind == model.StructureOHLCV
	for _, p := range series.Points {
		var open, high, low, volume any
		if ohlcv {
			open, high, low, volume = p.Bar.Open, p.Bar.High, p.Bar.Low, p.Bar.Volume
		}
		if _, err := stmt.ExecContext(ctx, name, p.TS, p.Value, open, high, low, volume); err != nil {
			return fmt.Errorf("sqlite insert %s@%d: %w", name, p.TS, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit %s: %w", name, err)
	}
	slog.Debug("sqlite: saved series", "name", name, "points", series.Len(), "took", time.Since(start))
	return nil
}

// MarkFullHistory records that the stored series for name reaches back as
// far as its provider goes. The flag survives later saves.
func (s *Store) MarkFullHistory(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE series SET full_history = 1 WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlite mark %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite mark %s: no stored series", name)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
