package core

import "testing"

func TestSummarizeEmptySet(t *testing.T) {
	s := Summarize(nil)
	if s.TotalCents != 0 || s.TransactionCount != 0 {
		t.Fatalf("empty set should be zero state, got %+v", s)
	}
	if s.HighestCents != 0 {
		t.Fatalf("highest of empty set must be 0, got %d", s.HighestCents)
	}
	if len(s.Breakdown) != 13 {
		t.Fatalf("breakdown must always have 13 entries, got %d", len(s.Breakdown))
	}
	for c, v := range s.Breakdown {
		if v != 0 {
			t.Fatalf("category %q should be zero-filled, got %d", c, v)
		}
	}
}

func TestSummarize(t *testing.T) {
	expenses := []Expense{
		expenseOn("coffee", CategoryFood, 15000, NewDate(2024, 6, 5)),
		expenseOn("lunch", CategoryFood, 30000, NewDate(2024, 6, 8)),
		expenseOn("train", CategoryTravel, 12000, NewDate(2024, 6, 9)),
	}
	s := Summarize(expenses)
	if s.TotalCents != 57000 {
		t.Fatalf("expected total 57000, got %d", s.TotalCents)
	}
	if s.TransactionCount != 3 {
		t.Fatalf("expected count 3, got %d", s.TransactionCount)
	}
	if s.HighestCents != 30000 {
		t.Fatalf("expected highest 30000, got %d", s.HighestCents)
	}
	if s.Breakdown[CategoryFood] != 45000 {
		t.Fatalf("expected Food 45000, got %d", s.Breakdown[CategoryFood])
	}
	if s.Breakdown[CategoryTravel] != 12000 {
		t.Fatalf("expected Travel 12000, got %d", s.Breakdown[CategoryTravel])
	}
	if s.Breakdown[CategorySports] != 0 {
		t.Fatalf("unmatched category should be explicit 0, got %d", s.Breakdown[CategorySports])
	}

	// Breakdown entries always sum to the total.
	var sum int64
	for _, v := range s.Breakdown {
		sum += v
	}
	if sum != s.TotalCents {
		t.Fatalf("breakdown sum %d != total %d", sum, s.TotalCents)
	}
}

func TestYearSeries(t *testing.T) {
	expenses := []Expense{
		expenseOn("jan", CategoryFood, 10000, NewDate(2024, 1, 5)),
		expenseOn("jan2", CategoryFood, 5000, NewDate(2024, 1, 20)),
		expenseOn("jun", CategoryTravel, 20000, NewDate(2024, 6, 1)),
		expenseOn("dec", CategoryOther, 7000, NewDate(2024, 12, 31)),
		expenseOn("other year", CategoryFood, 99999, NewDate(2023, 6, 1)),
	}
	series := YearSeries(expenses, 2024)
	if len(series) != 12 {
		t.Fatalf("series must have 12 slots, got %d", len(series))
	}
	if series[0] != 15000 {
		t.Fatalf("expected January 15000, got %d", series[0])
	}
	if series[5] != 20000 {
		t.Fatalf("expected June 20000, got %d", series[5])
	}
	if series[11] != 7000 {
		t.Fatalf("expected December 7000, got %d", series[11])
	}
	if got := SeriesTotal(series); got != 42000 {
		t.Fatalf("series total should exclude other years, got %d", got)
	}
}

func TestAveragePerMonthCents(t *testing.T) {
	var empty [MonthsPerYear]int64
	if got := AveragePerMonthCents(empty); got != 0 {
		t.Fatalf("empty year should average 0, got %d", got)
	}

	var series [MonthsPerYear]int64
	series[0] = 120000 // everything in January; divisor is still 12
	if got := AveragePerMonthCents(series); got != 10000 {
		t.Fatalf("expected 10000, got %d", got)
	}
}
