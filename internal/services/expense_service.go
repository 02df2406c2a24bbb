// Package services orchestrates expense operations: validation, ownership
// scoping, persistence and change-event publishing. Caller identity is an
// explicit parameter on every operation, never ambient state.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
)

// DuplicateSuffix is appended to the item when duplicating a record.
const DuplicateSuffix = " (copy)"

// Repository is the storage collaborator. Implementations must scope every
// operation by owner and report cross-owner targets as core.ErrNotFound.
type Repository interface {
	Insert(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	GetByID(ctx context.Context, ownerID string, id int64) (core.Expense, error)
	List(ctx context.Context, ownerID string, f core.Filter) ([]core.Expense, error)
	ListYear(ctx context.Context, ownerID string, year int) ([]core.Expense, error)
}

// EventPublisher notifies downstream consumers of record mutations.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService is the record lifecycle manager plus the query surface.
type ExpenseService struct {
	repo      Repository
	publisher EventPublisher
}

// NewExpenseService wires the service. publisher may be nil; change events
// are then skipped entirely.
func NewExpenseService(repo Repository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{repo: repo, publisher: publisher}
}

// Create validates the draft and persists it for the calling owner. Any
// owner field supplied by the caller is overwritten: ownership is never
// client-controlled.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, draft core.Expense) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthorized
	}

	draft = draft.Normalized()
	draft.ID = 0
	draft.OwnerID = ownerID
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.repo.Insert(ctx, draft)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, saved.ID, ownerID)
	return saved, nil
}

// Update replaces all mutable fields of an owned record. Callers supply the
// complete field set even when changing only one; there are no partial
// updates.
func (s *ExpenseService) Update(ctx context.Context, ownerID string, id int64, draft core.Expense) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthorized
	}

	draft = draft.Normalized()
	draft.ID = id
	draft.OwnerID = ownerID
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.repo.Update(ctx, draft)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, amqp.ActionUpdated, id, ownerID)
	return updated, nil
}

// Delete removes an owned record permanently. A repeat delete reports
// not-found rather than a conflict.
func (s *ExpenseService) Delete(ctx context.Context, ownerID string, id int64) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionDeleted, id, ownerID)
	return nil
}

// Duplicate copies an owned record into a new one, appending the copy
// suffix to the item and keeping the original date. It is sugar over
// Create and carries no invariants of its own.
func (s *ExpenseService) Duplicate(ctx context.Context, ownerID string, id int64) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthorized
	}

	original, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}

	draft := core.Expense{
		Item:       original.Item + DuplicateSuffix,
		Category:   original.Category,
		Mode:       original.Mode,
		Amount:     original.Amount,
		OccurredOn: original.OccurredOn,
	}
	return s.Create(ctx, ownerID, draft)
}

// Get fetches a single owned record.
func (s *ExpenseService) Get(ctx context.Context, ownerID string, id int64) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthorized
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

// List returns the owner's records matching the filter. An empty result is
// success, not an error.
func (s *ExpenseService) List(ctx context.Context, ownerID string, f core.Filter) ([]core.Expense, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthorized
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ownerID, f)
}

// ListMonth is the monthly-window query: the given calendar month, sorted
// latest, no other criteria.
func (s *ExpenseService) ListMonth(ctx context.Context, ownerID string, year, month int) ([]core.Expense, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthorized
	}
	if month < 1 || month > 12 {
		verr := &core.ValidationError{}
		verr.Add("month", "month must be between 1 and 12")
		return nil, verr
	}
	return s.repo.List(ctx, ownerID, core.MonthWindow(year, month))
}

// MonthSummary aggregates one calendar month of the owner's records.
func (s *ExpenseService) MonthSummary(ctx context.Context, ownerID string, year, month int) (core.MonthlySummary, error) {
	expenses, err := s.ListMonth(ctx, ownerID, year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return core.Summarize(expenses), nil
}

// YearSeries aggregates the owner's records into twelve per-month sums.
func (s *ExpenseService) YearSeries(ctx context.Context, ownerID string, year int) ([core.MonthsPerYear]int64, error) {
	var zero [core.MonthsPerYear]int64
	if ownerID == "" {
		return zero, core.ErrUnauthorized
	}
	expenses, err := s.repo.ListYear(ctx, ownerID, year)
	if err != nil {
		return zero, err
	}
	return core.YearSeries(expenses, year), nil
}

// publish sends a change event without failing the request: the mutation
// already committed, so a broker hiccup is logged and absorbed.
func (s *ExpenseService) publish(ctx context.Context, action amqp.EventAction, id int64, ownerID string) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewExpenseEvent(action, id, ownerID)
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"action", string(action),
			"expense_id", id,
			"error", err)
	}
}
