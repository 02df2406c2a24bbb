// Package worker mirrors expense mutations from SQLite to the configured
// spreadsheet, driven by AMQP change events with a periodic sweep for rows
// that were missed while the broker or the sheet was unavailable.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/sheets"
	"kharcha/internal/storage"
)

// ExportWorker consumes change events and keeps the sheet in step with
// storage.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.ExpenseWriter
	deleter   sheets.ExpenseDeleter
	batchSize int
}

func NewExportWorker(store *storage.SQLiteRepository, writer sheets.ExpenseWriter, deleter sheets.ExpenseDeleter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   store,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleEvent processes one change event. Returning an error requeues the
// event at the broker.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	switch event.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		return w.exportRecord(ctx, event.OwnerID, event.ID)
	case amqp.ActionDeleted:
		return w.removeRecord(ctx, event.ID)
	default:
		slog.WarnContext(ctx, "Unknown event action, dropping",
			"action", string(event.Action), "expense_id", event.ID)
		return nil
	}
}

func (w *ExportWorker) exportRecord(ctx context.Context, ownerID string, id int64) error {
	expense, err := w.storage.GetByID(ctx, ownerID, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the event was handled; nothing to export.
		slog.WarnContext(ctx, "Expense gone before export", "expense_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense for export: %w", err)
	}

	if _, err := w.writer.Append(ctx, expense); err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "expense_id", id, "error", markErr)
		}
		return fmt.Errorf("export expense %d: %w", id, err)
	}

	return w.storage.MarkExported(ctx, id)
}

func (w *ExportWorker) removeRecord(ctx context.Context, id int64) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No deleter configured, skipping sheet removal", "expense_id", id)
		return nil
	}
	if err := w.deleter.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("remove exported row %d: %w", id, err)
	}
	return nil
}

// Sweep exports one batch of rows still marked pending. Used as a safety
// net for mutations whose events were lost.
func (w *ExportWorker) Sweep(ctx context.Context) error {
	pending, err := w.storage.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping pending exports", "count", len(pending))
	for _, expense := range pending {
		if err := w.exportRecord(ctx, expense.OwnerID, expense.ID); err != nil {
			slog.ErrorContext(ctx, "Sweep export failed",
				"expense_id", expense.ID, "error", err)
		}
	}
	return nil
}

// RunSweeper runs Sweep on the given interval until ctx is cancelled.
func (w *ExportWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}
