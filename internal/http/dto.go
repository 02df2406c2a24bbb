package http

import (
	"fmt"
	"time"

	"kharcha/internal/core"
)

const dateLayout = "2006-01-02"

// expenseRequest is the write payload for create and update. Amount is a
// decimal string ("123.45", comma accepted) so clients never send floats.
type expenseRequest struct {
	Item       string `json:"item"`
	Category   string `json:"category"`
	Mode       string `json:"mode"`
	Amount     string `json:"amount"`
	OccurredOn string `json:"occurred_on"`
}

// toDraft converts the payload into a domain draft. Parse failures are
// reported per field alongside any domain validation that follows.
func (p expenseRequest) toDraft() (core.Expense, *core.ValidationError) {
	verr := &core.ValidationError{}

	var amount core.Money
	if cents, err := core.ParseDecimalToCents(p.Amount); err != nil {
		verr.Add("amount", err.Error())
	} else {
		amount = core.Money{Cents: cents}
	}

	var occurredOn time.Time
	if p.OccurredOn == "" {
		verr.Add("occurred_on", "date is required")
	} else if t, err := time.Parse(dateLayout, p.OccurredOn); err != nil {
		verr.Add("occurred_on", "date must be in YYYY-MM-DD format")
	} else {
		occurredOn = t.UTC()
	}

	if !verr.Empty() {
		return core.Expense{}, verr
	}
	return core.Expense{
		Item:       p.Item,
		Category:   core.Category(p.Category),
		Mode:       core.PaymentMode(p.Mode),
		Amount:     amount,
		OccurredOn: occurredOn,
	}, nil
}

// expenseResponse is the read shape of a single record. Amounts are carried
// both as integer cents and as a pre-formatted decimal string.
type expenseResponse struct {
	ID          int64  `json:"id"`
	Item        string `json:"item"`
	Category    string `json:"category"`
	Mode        string `json:"mode"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	OccurredOn  string `json:"occurred_on"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Item:        e.Item,
		Category:    string(e.Category),
		Mode:        string(e.Mode),
		AmountCents: e.Amount.Cents,
		Amount:      formatCents(e.Amount.Cents),
		OccurredOn:  e.OccurredOn.Format(dateLayout),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toExpenseList(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

// summaryResponse is the monthly roll-up. Breakdown has one entry per
// category in canonical order, zero-filled.
type summaryResponse struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	TotalCents       int64           `json:"total_cents"`
	Total            string          `json:"total"`
	TransactionCount int             `json:"transaction_count"`
	HighestCents     int64           `json:"highest_cents"`
	Breakdown        []breakdownItem `json:"breakdown"`
}

type breakdownItem struct {
	Category   string `json:"category"`
	TotalCents int64  `json:"total_cents"`
}

func toSummaryResponse(year, month int, s core.MonthlySummary) summaryResponse {
	breakdown := make([]breakdownItem, 0, len(s.Breakdown))
	for _, c := range core.Categories() {
		breakdown = append(breakdown, breakdownItem{
			Category:   string(c),
			TotalCents: s.Breakdown[c],
		})
	}
	return summaryResponse{
		Year:             year,
		Month:            month,
		TotalCents:       s.TotalCents,
		Total:            formatCents(s.TotalCents),
		TransactionCount: s.TransactionCount,
		HighestCents:     s.HighestCents,
		Breakdown:        breakdown,
	}
}

// seriesResponse is the year chart: twelve per-month sums, January first.
type seriesResponse struct {
	Year                 int       `json:"year"`
	MonthsCents          [12]int64 `json:"months_cents"`
	TotalCents           int64     `json:"total_cents"`
	AveragePerMonthCents int64     `json:"average_per_month_cents"`
}

func toSeriesResponse(year int, series [core.MonthsPerYear]int64) seriesResponse {
	return seriesResponse{
		Year:                 year,
		MonthsCents:          series,
		TotalCents:           core.SeriesTotal(series),
		AveragePerMonthCents: core.AveragePerMonthCents(series),
	}
}

func formatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}
