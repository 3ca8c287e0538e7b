// Package storage persists the revenue ledger, monthly snapshots, and
// operator-scoped API keys in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"revpulse/internal/core"

	_ "modernc.org/sqlite"
)

// maxAPIKeyLength bounds stored credential values; the credential store
// collaborator owns this limit, not the reconciliation engine.
const maxAPIKeyLength = 4096

var ErrValueTooLong = errors.New("credential value too long")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSource inserts a new revenue source and returns its id.
func (r *SQLiteRepository) CreateSource(ctx context.Context, src core.RevenueSource) (int64, error) {
	if err := src.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO revenue_sources (operator_id, name, type, mrr_cents, growth_pct, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		src.OperatorID, src.Name, src.Type, src.MRR.Cents, src.GrowthPct, string(src.Status))
	if err != nil {
		return 0, fmt.Errorf("create revenue source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Revenue source saved",
		"id", id,
		"operator_id", src.OperatorID,
		"name", src.Name,
		"mrr_cents", src.MRR.Cents,
		"status", src.Status)

	return id, nil
}

// UpdateSource rewrites a source's mutable fields. Missing rows are reported
// as sql.ErrNoRows.
func (r *SQLiteRepository) UpdateSource(ctx context.Context, src core.RevenueSource) error {
	if err := src.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE revenue_sources
		SET name = ?, type = ?, mrr_cents = ?, growth_pct = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND operator_id = ? AND deleted_at IS NULL`,
		src.Name, src.Type, src.MRR.Cents, src.GrowthPct, string(src.Status), src.ID, src.OperatorID)
	if err != nil {
		return fmt.Errorf("update revenue source: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDeleteSource marks a source deleted without losing history.
func (r *SQLiteRepository) SoftDeleteSource(ctx context.Context, operatorID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE revenue_sources
		SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND operator_id = ? AND deleted_at IS NULL`,
		id, operatorID)
	if err != nil {
		return fmt.Errorf("soft delete revenue source: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	slog.InfoContext(ctx, "Revenue source soft deleted", "id", id, "operator_id", operatorID)
	return nil
}

// ListSources returns all non-deleted sources for an operator, every status
// included; aggregation filters by status, storage does not.
func (r *SQLiteRepository) ListSources(ctx context.Context, operatorID string) ([]core.RevenueSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, operator_id, name, type, mrr_cents, growth_pct, status
		FROM revenue_sources
		WHERE operator_id = ? AND deleted_at IS NULL
		ORDER BY id`,
		operatorID)
	if err != nil {
		return nil, fmt.Errorf("list revenue sources: %w", err)
	}
	defer rows.Close()

	var sources []core.RevenueSource
	for rows.Next() {
		var (
			src    core.RevenueSource
			status string
		)
		if err := rows.Scan(&src.ID, &src.OperatorID, &src.Name, &src.Type, &src.MRR.Cents, &src.GrowthPct, &status); err != nil {
			return nil, fmt.Errorf("scan revenue source: %w", err)
		}
		src.Status = core.SourceStatus(status)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue sources: %w", err)
	}
	return sources, nil
}

// UpsertSnapshot records a month's totals, overwriting any earlier figure
// for the same operator and month.
func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, snap core.RevenueSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revenue_snapshots (operator_id, month, total_mrr_cents, expenses_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (operator_id, month) DO UPDATE SET
			total_mrr_cents = excluded.total_mrr_cents,
			expenses_cents = excluded.expenses_cents,
			updated_at = CURRENT_TIMESTAMP`,
		snap.OperatorID, snap.Month, snap.TotalMRR.Cents, snap.Expenses.Cents)
	if err != nil {
		return fmt.Errorf("upsert revenue snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Revenue snapshot recorded",
		"operator_id", snap.OperatorID,
		"month", snap.Month,
		"total_mrr_cents", snap.TotalMRR.Cents)

	return nil
}

// LatestSnapshot returns the most recent snapshot by month key, reporting
// false when the operator has no history.
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context, operatorID string) (core.RevenueSnapshot, bool, error) {
	var snap core.RevenueSnapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT operator_id, month, total_mrr_cents, expenses_cents
		FROM revenue_snapshots
		WHERE operator_id = ?
		ORDER BY month DESC
		LIMIT 1`,
		operatorID).Scan(&snap.OperatorID, &snap.Month, &snap.TotalMRR.Cents, &snap.Expenses.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RevenueSnapshot{}, false, nil
	}
	if err != nil {
		return core.RevenueSnapshot{}, false, fmt.Errorf("latest revenue snapshot: %w", err)
	}
	return snap, true, nil
}

// ListSnapshots returns the operator's snapshot history, oldest first, for
// trend display.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, operatorID string) ([]core.RevenueSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT operator_id, month, total_mrr_cents, expenses_cents
		FROM revenue_snapshots
		WHERE operator_id = ?
		ORDER BY month`,
		operatorID)
	if err != nil {
		return nil, fmt.Errorf("list revenue snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []core.RevenueSnapshot
	for rows.Next() {
		var snap core.RevenueSnapshot
		if err := rows.Scan(&snap.OperatorID, &snap.Month, &snap.TotalMRR.Cents, &snap.Expenses.Cents); err != nil {
			return nil, fmt.Errorf("scan revenue snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue snapshots: %w", err)
	}
	return snaps, nil
}

// Get implements credentials.Store.
func (r *SQLiteRepository) Get(ctx context.Context, operatorID, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM api_keys WHERE operator_id = ? AND name = ?`,
		operatorID, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get api key: %w", err)
	}
	return value, true, nil
}

// SetAPIKey stores or replaces an operator-scoped credential.
func (r *SQLiteRepository) SetAPIKey(ctx context.Context, operatorID, name, value string) error {
	if len(value) > maxAPIKeyLength {
		return ErrValueTooLong
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (operator_id, name, value)
		VALUES (?, ?, ?)
		ON CONFLICT (operator_id, name) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		operatorID, name, value)
	if err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	return nil
}

// DeleteAPIKey removes an operator-scoped credential, disabling the live
// billing tier for that operator on the next read.
func (r *SQLiteRepository) DeleteAPIKey(ctx context.Context, operatorID, name string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM api_keys WHERE operator_id = ? AND name = ?`,
		operatorID, name)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}
