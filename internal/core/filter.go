package core

import (
	"sort"
	"strings"
	"time"
)

// SortOrder names the supported result orderings.
type SortOrder string

const (
	SortLatest  SortOrder = "latest"  // occurred-on descending (default)
	SortOldest  SortOrder = "oldest"  // occurred-on ascending
	SortHighest SortOrder = "highest" // amount descending
	SortLowest  SortOrder = "lowest"  // amount ascending
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortLatest, SortOldest, SortHighest, SortLowest:
		return true
	}
	return false
}

// Filter holds the optional query criteria. Zero values impose no
// constraint; supplied criteria are ANDed together.
type Filter struct {
	Category  Category
	Mode      PaymentMode
	Search    string    // case-insensitive substring over Item
	StartDate time.Time // inclusive; zero means unbounded
	EndDate   time.Time // inclusive through the whole end day; zero means unbounded
	Sort      SortOrder // empty means SortLatest
}

// Validate rejects out-of-set category, mode and sort values so that an
// unknown enum never silently matches nothing.
func (f Filter) Validate() error {
	verr := &ValidationError{}
	if f.Category != "" && !f.Category.Valid() {
		verr.Add("category", "not a valid expense category")
	}
	if f.Mode != "" && !f.Mode.Valid() {
		verr.Add("mode", "not a valid payment mode")
	}
	if f.Sort != "" && !f.Sort.Valid() {
		verr.Add("sort", "not a valid sort order")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// Order returns the effective sort order, defaulting to latest.
func (f Filter) Order() SortOrder {
	if f.Sort == "" {
		return SortLatest
	}
	return f.Sort
}

// EndOfDay returns the last represented instant of t's calendar day
// (23:59:59.999), so an inclusive end bound covers the entire day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Match reports whether e satisfies every supplied criterion.
func (f Filter) Match(e Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Mode != "" && e.Mode != f.Mode {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		if !strings.Contains(strings.ToLower(e.Item), strings.ToLower(s)) {
			return false
		}
	}
	if !f.StartDate.IsZero() && e.OccurredOn.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.OccurredOn.After(EndOfDay(f.EndDate)) {
		return false
	}
	return true
}

// Apply returns the subset of expenses matching f, ordered by f's sort.
// The input slice is not modified; ties keep their relative input order.
func (f Filter) Apply(expenses []Expense) []Expense {
	matched := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Match(e) {
			matched = append(matched, e)
		}
	}
	SortExpenses(matched, f.Order())
	return matched
}

// SortExpenses orders expenses in place. The sort is stable so records that
// compare equal keep their insertion order.
func SortExpenses(expenses []Expense, order SortOrder) {
	switch order {
	case SortOldest:
		sort.SliceStable(expenses, func(i, j int) bool {
			return expenses[i].OccurredOn.Before(expenses[j].OccurredOn)
		})
	case SortHighest:
		sort.SliceStable(expenses, func(i, j int) bool {
			return expenses[i].Amount.Cents > expenses[j].Amount.Cents
		})
	case SortLowest:
		sort.SliceStable(expenses, func(i, j int) bool {
			return expenses[i].Amount.Cents < expenses[j].Amount.Cents
		})
	default: // SortLatest
		sort.SliceStable(expenses, func(i, j int) bool {
			return expenses[i].OccurredOn.After(expenses[j].OccurredOn)
		})
	}
}

// MonthWindow is the convenience filter spanning exactly one calendar month,
// always sorted latest with no other criteria.
func MonthWindow(year, month int) Filter {
	first := NewDate(year, month, 1)
	last := first.AddDate(0, 1, -1)
	return Filter{
		StartDate: first,
		EndDate:   last,
		Sort:      SortLatest,
	}
}
