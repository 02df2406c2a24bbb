// Package storage persists expense records in SQLite. Every query is
// owner-scoped: the owner id is part of each WHERE clause, so a record
// belonging to another owner is indistinguishable from a missing one.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kharcha/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for the export worker.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

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

	if err := runMigrations(db); err != nil {
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

const expenseColumns = "id, owner_id, item, category, payment_mode, amount_cents, occurred_on, created_at, updated_at"

// Insert persists a new record and returns it with the assigned id and
// audit timestamps.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner_id, item, category, payment_mode, amount_cents, occurred_on, created_at, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Item, string(e.Category), string(e.Mode), e.Amount.Cents,
		e.OccurredOn.Unix(), now.Unix(), now.Unix(), SyncPending,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"owner_id", e.OwnerID,
		"item", e.Item,
		"amount_cents", e.Amount.Cents,
		"category", string(e.Category))

	return e, nil
}

// Update replaces the mutable fields of an owned record. A missing or
// foreign-owned id is reported as core.ErrNotFound.
func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET item = ?, category = ?, payment_mode = ?, amount_cents = ?, occurred_on = ?, updated_at = ?, sync_status = ?
		WHERE id = ? AND owner_id = ?`,
		e.Item, string(e.Category), string(e.Mode), e.Amount.Cents,
		e.OccurredOn.Unix(), now.Unix(), SyncPending,
		e.ID, e.OwnerID,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense rows: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, core.ErrNotFound
	}

	return r.GetByID(ctx, e.OwnerID, e.ID)
}

// Delete removes an owned record permanently.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "owner_id", ownerID)
	return nil
}

// GetByID fetches a single owned record.
func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID string, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// List returns the owner's records matching the filter, ordered per its
// sort. Filtering and ordering are pushed down to SQL, except the substring
// search: SQL LIKE treats % and _ as wildcards and SQLite's LOWER folds
// only ASCII, so search is applied in Go with the same predicate the pure
// filter uses. Ties fall back to insertion order (the rowid).
func (r *SQLiteRepository) List(ctx context.Context, ownerID string, f core.Filter) ([]core.Expense, error) {
	conds := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Mode != "" {
		conds = append(conds, "payment_mode = ?")
		args = append(args, string(f.Mode))
	}
	if !f.StartDate.IsZero() {
		conds = append(conds, "occurred_on >= ?")
		args = append(args, f.StartDate.Unix())
	}
	if !f.EndDate.IsZero() {
		// The end bound covers the whole end day.
		conds = append(conds, "occurred_on <= ?")
		args = append(args, core.EndOfDay(f.EndDate).Unix())
	}

	var order string
	switch f.Order() {
	case core.SortOldest:
		order = "occurred_on ASC, id ASC"
	case core.SortHighest:
		order = "amount_cents DESC, id ASC"
	case core.SortLowest:
		order = "amount_cents ASC, id ASC"
	default:
		order = "occurred_on DESC, id ASC"
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	search := core.Filter{Search: f.Search}
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if !search.Match(e) {
			continue
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses rows: %w", err)
	}
	return expenses, nil
}

// ListYear returns all of the owner's records in the given calendar year,
// for chart aggregation.
func (r *SQLiteRepository) ListYear(ctx context.Context, ownerID string, year int) ([]core.Expense, error) {
	return r.List(ctx, ownerID, core.Filter{
		StartDate: core.NewDate(year, 1, 1),
		EndDate:   core.NewDate(year, 12, 31),
		Sort:      core.SortOldest,
	})
}

// PendingExport lists records awaiting export, oldest first.
func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE sync_status = ? ORDER BY id ASC LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// MarkExported records a successful export of the given row.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncDone, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError flags a row whose export failed.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "expense_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		category   string
		mode       string
		occurredOn int64
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Item, &category, &mode,
		&e.Amount.Cents, &occurredOn, &createdAt, &updatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Mode = core.PaymentMode(mode)
	e.OccurredOn = time.Unix(occurredOn, 0).UTC()
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return e, nil
}
