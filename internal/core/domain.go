package core

import (
	"strings"
	"time"
)

// Category is one of the fixed expense categories. The set is closed:
// values outside it are rejected at validation time, never stored.
type Category string

const (
	CategoryFood         Category = "Food"
	CategoryElectronics  Category = "Electronics"
	CategoryClothes      Category = "Clothes"
	CategorySubscription Category = "Subscription"
	CategorySIP          Category = "SIP"
	CategoryStocks       Category = "Stocks"
	CategoryTravel       Category = "Travel"
	CategoryFees         Category = "Fees"
	CategoryRecharge     Category = "Mobile Recharge"
	CategoryOther        Category = "Other"
	CategoryMedicine     Category = "Medicine"
	CategoryTransfer     Category = "Transfer to Others"
	CategorySports       Category = "Sports"
)

// categories holds the canonical ordering used for breakdowns.
var categories = []Category{
	CategoryFood,
	CategoryElectronics,
	CategoryClothes,
	CategorySubscription,
	CategorySIP,
	CategoryStocks,
	CategoryTravel,
	CategoryFees,
	CategoryRecharge,
	CategoryOther,
	CategoryMedicine,
	CategoryTransfer,
	CategorySports,
}

// Categories returns all valid categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// PaymentMode is how an expense was paid.
type PaymentMode string

const (
	ModeOnline PaymentMode = "Online"
	ModeCash   PaymentMode = "Cash"
	ModeCard   PaymentMode = "Card"
)

// PaymentModes returns all valid payment modes.
func PaymentModes() []PaymentMode {
	return []PaymentMode{ModeOnline, ModeCash, ModeCard}
}

// Valid reports whether m is one of the enumerated payment modes.
func (m PaymentMode) Valid() bool {
	switch m {
	case ModeOnline, ModeCash, ModeCard:
		return true
	}
	return false
}

const maxItemLength = 100

// Expense is a single recorded expense, always owned by exactly one user.
// ID, CreatedAt and UpdatedAt are assigned by storage; OwnerID is assigned
// from the caller's identity on create and never mutated afterwards.
type Expense struct {
	ID         int64
	OwnerID    string
	Item       string
	Category   Category
	Mode       PaymentMode
	Amount     Money
	OccurredOn time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDate builds the calendar date year/month/day at UTC midnight.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Validate checks the mutable fields against the domain invariants and
// returns a *ValidationError listing every violated field, or nil.
func (e Expense) Validate() error {
	verr := &ValidationError{}

	item := strings.TrimSpace(e.Item)
	if item == "" {
		verr.Add("item", "item name is required")
	} else if len(item) > maxItemLength {
		verr.Add("item", "item name cannot exceed 100 characters")
	}

	if !e.Category.Valid() {
		verr.Add("category", "not a valid expense category")
	}
	if !e.Mode.Valid() {
		verr.Add("mode", "not a valid payment mode")
	}
	if err := e.Amount.Validate(); err != nil {
		verr.Add("amount", err.Error())
	}
	if e.OccurredOn.IsZero() {
		verr.Add("occurred_on", "date is required")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// Normalized returns a copy with the item trimmed, ready for persistence.
func (e Expense) Normalized() Expense {
	e.Item = strings.TrimSpace(e.Item)
	return e
}
