package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary holds the figures derived from a full transaction list.
type Summary struct {
	Count              int
	Balance            decimal.Decimal
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal  // absolute value
	ExpensesByCategory []CategoryAmount // first-seen order
	MaxExpense         decimal.Decimal  // never below 1
}

// Summarize folds txs into a Summary. The input is not modified.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		Count:         len(txs),
		Balance:       decimal.Zero,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		MaxExpense:    decimal.NewFromInt(1),
	}

	expenses := decimal.Zero
	index := make(map[string]int)
	for _, t := range txs {
		s.Balance = s.Balance.Add(t.Amount)
		switch t.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			expenses = expenses.Add(t.Amount)
			i, ok := index[t.Category]
			if !ok {
				i = len(s.ExpensesByCategory)
				index[t.Category] = i
				s.ExpensesByCategory = append(s.ExpensesByCategory, CategoryAmount{Name: t.Category, Amount: decimal.Zero})
			}
			s.ExpensesByCategory[i].Amount = s.ExpensesByCategory[i].Amount.Add(t.Amount.Abs())
		}
	}
	s.TotalExpenses = expenses.Abs()

	for _, c := range s.ExpensesByCategory {
		if c.Amount.GreaterThan(s.MaxExpense) {
			s.MaxExpense = c.Amount
		}
	}
	return s
}

// Share returns the category amount as a fraction of MaxExpense, used to
// size proportional bars.
func (s Summary) Share(c CategoryAmount) float64 {
	f, _ := c.Amount.Div(s.MaxExpense).Float64()
	return f
}

// InMonth keeps the transactions dated in the given calendar month. Records
// without a usable date never match.
func InMonth(txs []Transaction, year, month int) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date.SameMonth(year, month) {
			out = append(out, t)
		}
	}
	return out
}

// SortByDateDesc orders txs newest day first. Same-day records keep their
// relative order.
func SortByDateDesc(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date.Time)
	})
}

// MonthView returns the transactions of one calendar month, newest day
// first.
func MonthView(txs []Transaction, year, month int) []Transaction {
	out := InMonth(txs, year, month)
	SortByDateDesc(out)
	return out
}

// Recent returns at most n leading transactions of a most-recent-first list.
func Recent(txs []Transaction, n int) []Transaction {
	if n < 0 || n >= len(txs) {
		return txs
	}
	return txs[:n]
}
