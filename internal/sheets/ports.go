// Package sheets defines the outbound ports for mirroring expense records
// to an external spreadsheet.
package sheets

import (
	"context"

	"kharcha/internal/core"
)

type (
	// ExpenseWriter appends one expense row and returns a row reference.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseDeleter removes the row for a previously exported record.
	ExpenseDeleter interface {
		DeleteByID(ctx context.Context, id int64) error
	}
)
