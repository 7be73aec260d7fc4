package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"burnscope/internal/core"
	"burnscope/internal/dataset"
	"burnscope/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the aggregated table in SQLite. The table is rebuilt from
// the loaded dataset on every start.
type SQLiteStore struct {
	db *sql.DB
}

var _ dataset.AggregateStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens dbPath and migrates it. ctx only carries the logger.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY on Replace.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Replace truncates the table and inserts rows in a single transaction.
func (s *SQLiteStore) Replace(ctx context.Context, rows []core.AggregatedRecord) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM aggregated_burned_area`); err != nil {
		return fmt.Errorf("truncate aggregated table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO aggregated_burned_area
			(year, country, month, forest, savannas, shrublands_grasslands, croplands, other, total_burned_area)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.Year, r.Country, r.Month,
			r.Forest, r.Savannas, r.ShrublandsGrasslands, r.Croplands, r.Other,
			r.TotalBurnedArea,
		); err != nil {
			return fmt.Errorf("insert %d/%s/%d: %w", r.Year, r.Country, r.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentStorage).InfoContext(ctx, "Aggregated table stored in SQLite",
		log.FieldRows, len(rows),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ForCountry implements dataset.AggregateStore
func (s *SQLiteStore) ForCountry(ctx context.Context, country string, from, to int) ([]core.AggregatedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, country, month, forest, savannas, shrublands_grasslands, croplands, other, total_burned_area
		FROM aggregated_burned_area
		WHERE country = ? AND year BETWEEN ? AND ?
		ORDER BY year, month`, country, from, to)
	if err != nil {
		return nil, fmt.Errorf("query country %s: %w", country, err)
	}
	defer rows.Close()

	var out []core.AggregatedRecord
	for rows.Next() {
		var r core.AggregatedRecord
		if err := rows.Scan(
			&r.Year, &r.Country, &r.Month,
			&r.Forest, &r.Savannas, &r.ShrublandsGrasslands, &r.Croplands, &r.Other,
			&r.TotalBurnedArea,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Count implements dataset.AggregateStore
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aggregated_burned_area`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Ping checks the database connection for readiness probes.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
