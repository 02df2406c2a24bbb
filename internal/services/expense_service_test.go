package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
)

// fakeRepo keeps records in memory and applies the same owner scoping rules
// as the SQLite repository.
type fakeRepo struct {
	nextID   int64
	expenses []core.Expense
	failWith error
}

func (r *fakeRepo) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	if r.failWith != nil {
		return core.Expense{}, r.failWith
	}
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	r.expenses = append(r.expenses, e)
	return e, nil
}

func (r *fakeRepo) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	for i, existing := range r.expenses {
		if existing.ID == e.ID && existing.OwnerID == e.OwnerID {
			e.CreatedAt = existing.CreatedAt
			e.UpdatedAt = time.Now().UTC()
			r.expenses[i] = e
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (r *fakeRepo) Delete(_ context.Context, ownerID string, id int64) error {
	for i, existing := range r.expenses {
		if existing.ID == id && existing.OwnerID == ownerID {
			r.expenses = append(r.expenses[:i], r.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *fakeRepo) GetByID(_ context.Context, ownerID string, id int64) (core.Expense, error) {
	for _, existing := range r.expenses {
		if existing.ID == id && existing.OwnerID == ownerID {
			return existing, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, ownerID string, f core.Filter) ([]core.Expense, error) {
	var owned []core.Expense
	for _, e := range r.expenses {
		if e.OwnerID == ownerID {
			owned = append(owned, e)
		}
	}
	return f.Apply(owned), nil
}

func (r *fakeRepo) ListYear(ctx context.Context, ownerID string, year int) ([]core.Expense, error) {
	return r.List(ctx, ownerID, core.Filter{
		StartDate: core.NewDate(year, 1, 1),
		EndDate:   core.NewDate(year, 12, 31),
	})
}

type recordingPublisher struct {
	events []*amqp.ExpenseEvent
	fail   bool
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event *amqp.ExpenseEvent) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, event)
	return nil
}

func draft(item string, cat core.Category, cents int64, date time.Time) core.Expense {
	return core.Expense{
		Item:       item,
		Category:   cat,
		Mode:       core.ModeCash,
		Amount:     core.Money{Cents: cents},
		OccurredOn: date,
	}
}

func newTestService() (*ExpenseService, *fakeRepo, *recordingPublisher) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	return NewExpenseService(repo, pub), repo, pub
}

func TestCreate(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	saved, err := svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if saved.OwnerID != "owner-a" {
		t.Fatalf("expected owner from identity, got %q", saved.OwnerID)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreated {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestCreateOverwritesCallerSuppliedOwner(t *testing.T) {
	svc, _, _ := newTestService()

	d := draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5))
	d.OwnerID = "owner-spoofed"
	d.ID = 999

	saved, err := svc.Create(context.Background(), "owner-a", d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if saved.OwnerID != "owner-a" {
		t.Fatalf("ownership must come from caller identity, got %q", saved.OwnerID)
	}
	if saved.ID == 999 {
		t.Fatal("caller-supplied id must be ignored")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, pub := newTestService()

	d := draft("Coffee", core.CategoryFood, 0, core.NewDate(2024, 6, 5))
	_, err := svc.Create(context.Background(), "owner-a", d)
	if err == nil {
		t.Fatal("expected validation error for zero amount")
	}
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	found := false
	for _, f := range verr.Fields {
		if f.Field == "amount" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected amount violation, got %v", verr.Fields)
	}
	if len(pub.events) != 0 {
		t.Fatal("no event should be published on validation failure")
	}
}

func TestCreateUnauthorized(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), "", draft("Coffee", core.CategoryFood, 100, core.NewDate(2024, 6, 5)))
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	saved, _ := svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))

	replacement := draft("Espresso", core.CategoryFood, 20000, core.NewDate(2024, 6, 6))
	updated, err := svc.Update(ctx, "owner-a", saved.ID, replacement)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Item != "Espresso" || updated.Amount.Cents != 20000 {
		t.Fatalf("replacement not applied: %+v", updated)
	}
	if updated.OwnerID != "owner-a" || updated.ID != saved.ID {
		t.Fatal("id and owner must be immutable")
	}
	if pub.events[len(pub.events)-1].Action != amqp.ActionUpdated {
		t.Fatal("expected updated event")
	}
}

func TestUpdateForeignOwnerIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	saved, _ := svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))

	_, err := svc.Update(ctx, "owner-b", saved.ID, draft("Theft", core.CategoryFood, 100, core.NewDate(2024, 6, 5)))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-owner update must be not-found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	saved, _ := svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))

	if err := svc.Delete(ctx, "owner-a", saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "owner-a", saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must be not-found, got %v", err)
	}
	if err := svc.Delete(ctx, "owner-a", 4242); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("nonexistent id must be not-found, got %v", err)
	}
	if pub.events[len(pub.events)-1].Action != amqp.ActionDeleted {
		t.Fatal("expected deleted event")
	}
}

func TestDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	date := core.NewDate(2024, 6, 5)
	saved, _ := svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, date))

	copy, err := svc.Duplicate(ctx, "owner-a", saved.ID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if copy.ID == saved.ID {
		t.Fatal("duplicate must get its own id")
	}
	if copy.Item != "Coffee (copy)" {
		t.Fatalf("expected copy suffix, got %q", copy.Item)
	}
	if !copy.OccurredOn.Equal(date) {
		t.Fatalf("duplicate must keep the original date, got %v", copy.OccurredOn)
	}
	if copy.Category != saved.Category || copy.Mode != saved.Mode || copy.Amount != saved.Amount {
		t.Fatal("duplicate must copy all mutable fields")
	}

	if _, err := svc.Duplicate(ctx, "owner-b", saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-owner duplicate must be not-found, got %v", err)
	}
}

func TestListScopesAndFilters(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, "owner-a", draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))
	svc.Create(ctx, "owner-a", draft("Flight", core.CategoryTravel, 800000, core.NewDate(2024, 6, 10)))
	svc.Create(ctx, "owner-b", draft("Coffee", core.CategoryFood, 9000, core.NewDate(2024, 6, 5)))

	got, err := svc.List(ctx, "owner-a", core.Filter{Category: core.CategoryFood})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Item != "Coffee" || got[0].OwnerID != "owner-a" {
		t.Fatalf("expected exactly owner-a's Food record, got %+v", got)
	}

	// Same filter for owner-b sees only their record.
	gotB, _ := svc.List(ctx, "owner-b", core.Filter{Category: core.CategoryFood})
	if len(gotB) != 1 || gotB[0].Amount.Cents != 9000 {
		t.Fatalf("expected owner-b's record only, got %+v", gotB)
	}

	// Unknown enum in the filter is rejected, not silently empty.
	if _, err := svc.List(ctx, "owner-a", core.Filter{Category: "Groceries"}); err == nil {
		t.Fatal("expected validation error for unknown category")
	}
}

func TestListMonth(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, "owner-a", draft("in", core.CategoryFood, 1000, core.NewDate(2024, 6, 30)))
	svc.Create(ctx, "owner-a", draft("out", core.CategoryFood, 2000, core.NewDate(2024, 7, 1)))

	got, err := svc.ListMonth(ctx, "owner-a", 2024, 6)
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(got) != 1 || got[0].Item != "in" {
		t.Fatalf("expected only June records, got %+v", got)
	}

	if _, err := svc.ListMonth(ctx, "owner-a", 2024, 13); err == nil {
		t.Fatal("expected validation error for month 13")
	}
}

func TestMonthSummary(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, "owner-a", draft("coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5)))
	svc.Create(ctx, "owner-a", draft("train", core.CategoryTravel, 30000, core.NewDate(2024, 6, 20)))

	s, err := svc.MonthSummary(ctx, "owner-a", 2024, 6)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if s.TotalCents != 45000 || s.TransactionCount != 2 || s.HighestCents != 30000 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if len(s.Breakdown) != 13 {
		t.Fatalf("breakdown must have 13 entries, got %d", len(s.Breakdown))
	}

	empty, err := svc.MonthSummary(ctx, "owner-a", 2024, 1)
	if err != nil {
		t.Fatalf("MonthSummary empty month: %v", err)
	}
	if empty.HighestCents != 0 || empty.TotalCents != 0 {
		t.Fatalf("empty month must be a zero state, got %+v", empty)
	}
}

func TestYearSeries(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, "owner-a", draft("jan", core.CategoryFood, 10000, core.NewDate(2024, 1, 15)))
	svc.Create(ctx, "owner-a", draft("jun", core.CategoryFood, 20000, core.NewDate(2024, 6, 15)))
	svc.Create(ctx, "owner-a", draft("prev", core.CategoryFood, 50000, core.NewDate(2023, 6, 15)))

	series, err := svc.YearSeries(ctx, "owner-a", 2024)
	if err != nil {
		t.Fatalf("YearSeries: %v", err)
	}
	if series[0] != 10000 || series[5] != 20000 {
		t.Fatalf("unexpected series: %v", series)
	}
	if core.SeriesTotal(series) != 30000 {
		t.Fatalf("series must exclude other years, got total %d", core.SeriesTotal(series))
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{fail: true}
	svc := NewExpenseService(repo, pub)

	if _, err := svc.Create(context.Background(), "owner-a", draft("Coffee", core.CategoryFood, 100, core.NewDate(2024, 6, 5))); err != nil {
		t.Fatalf("mutation must succeed despite broker failure, got %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewExpenseService(&fakeRepo{}, nil)
	if _, err := svc.Create(context.Background(), "owner-a", draft("Coffee", core.CategoryFood, 100, core.NewDate(2024, 6, 5))); err != nil {
		t.Fatalf("Create with nil publisher: %v", err)
	}
}

func TestRoundTripCreateThenQuery(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d := draft("Coffee", core.CategoryFood, 15000, core.NewDate(2024, 6, 5))
	saved, err := svc.Create(ctx, "owner-a", d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.List(ctx, "owner-a", core.Filter{
		Category: core.CategoryFood,
		Mode:     core.ModeCash,
		Search:   "coff",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the created record back, got %d", len(got))
	}
	e := got[0]
	if e.Item != d.Item || e.Category != d.Category || e.Mode != d.Mode ||
		e.Amount != d.Amount || !e.OccurredOn.Equal(d.OccurredOn) {
		t.Fatalf("user-supplied fields must round-trip, got %+v", e)
	}
	if e.ID != saved.ID {
		t.Fatal("expected the stored id")
	}

	// Owner B sees nothing with the same filter.
	gotB, err := svc.List(ctx, "owner-b", core.Filter{Category: core.CategoryFood})
	if err != nil {
		t.Fatalf("List owner-b: %v", err)
	}
	if len(gotB) != 0 {
		t.Fatalf("owner-b must see an empty result, got %d", len(gotB))
	}
}
