package core

// MonthsPerYear is the fixed divisor for the per-month average: an empty
// year averages to zero rather than erroring.
const MonthsPerYear = 12

// MonthlySummary is the roll-up shown on the dashboard for one record set.
// Breakdown always carries one entry per enumerated category, zero-filled
// for categories without matches.
type MonthlySummary struct {
	TotalCents       int64
	TransactionCount int
	HighestCents     int64
	Breakdown        map[Category]int64
}

// Summarize reduces a record set (already owner- and range-scoped) into a
// MonthlySummary. An empty set is a valid zero state, not an error.
func Summarize(expenses []Expense) MonthlySummary {
	breakdown := make(map[Category]int64, len(categories))
	for _, c := range categories {
		breakdown[c] = 0
	}

	s := MonthlySummary{Breakdown: breakdown}
	for _, e := range expenses {
		s.TotalCents += e.Amount.Cents
		s.TransactionCount++
		if e.Amount.Cents > s.HighestCents {
			s.HighestCents = e.Amount.Cents
		}
		breakdown[e.Category] += e.Amount.Cents
	}
	return s
}

// YearSeries sums amounts per calendar month of the target year. Index 0 is
// January. Records outside the year are skipped, not an error.
func YearSeries(expenses []Expense, year int) [MonthsPerYear]int64 {
	var series [MonthsPerYear]int64
	for _, e := range expenses {
		if e.OccurredOn.Year() != year {
			continue
		}
		series[int(e.OccurredOn.Month())-1] += e.Amount.Cents
	}
	return series
}

// SeriesTotal is the sum of all twelve slots.
func SeriesTotal(series [MonthsPerYear]int64) int64 {
	var total int64
	for _, v := range series {
		total += v
	}
	return total
}

// AveragePerMonthCents divides the yearly total by twelve regardless of how
// many months actually have data.
func AveragePerMonthCents(series [MonthsPerYear]int64) int64 {
	return SeriesTotal(series) / MonthsPerYear
}
