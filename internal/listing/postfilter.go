package listing

import (
	"strings"

	"github.com/hostelctl/hostelctl/internal/model"
)

// PostFilter narrows one fetched page locally, for filters the server does
// not support yet. It only ever sees the current page, so pagination
// totals and hasMore still describe the unfiltered server data.
type PostFilter[T model.Entity] func(items []T, f Filters) []T

// ExpenseKeys are the expense filters applied client-side.
var ExpenseKeys = []Key{KeyStartDate, KeyEndDate, KeyExpenseType}

// FilterExpenses keeps expenses dated within the selected range and, when
// an expense type is selected, of that type.
func FilterExpenses(items []model.Expense, f Filters) []model.Expense {
	if f.StartDate.IsZero() && f.EndDate.IsZero() && f.ExpenseType == "" {
		return items
	}

	out := make([]model.Expense, 0, len(items))
	for _, e := range items {
		if !e.ExpenseDate.Between(f.StartDate, f.EndDate) {
			continue
		}
		if f.ExpenseType != "" && !strings.EqualFold(e.ExpenseType, f.ExpenseType) {
			continue
		}
		out = append(out, e)
	}
	return out
}
