package http

import (
	"time"

	"github.com/shopspring/decimal"

	"gastitos/internal/core"
	"gastitos/internal/ledger"
)

type transactionView struct {
	ID            int64           `json:"id"`
	Type          core.Kind       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	DisplayAmount string          `json:"display_amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Date          string          `json:"date"`
	Icon          string          `json:"icon"`
	Color         string          `json:"color"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
}

func newTransactionView(t core.Transaction, a core.Appearance) transactionView {
	v := transactionView{
		ID:            t.ID,
		Type:          t.Kind,
		Amount:        t.Amount,
		DisplayAmount: core.FormatAmount(t.Amount),
		Description:   t.Description,
		Category:      t.Category,
		Date:          t.Date.Display(),
		Icon:          a.Icon,
		Color:         a.Color,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		v.CreatedAt = &created
	}
	return v
}

func itemViews(items []ledger.Item) []transactionView {
	out := make([]transactionView, len(items))
	for i, it := range items {
		out[i] = newTransactionView(it.Transaction, it.Appearance)
	}
	return out
}

func transactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, len(txs))
	for i, t := range txs {
		out[i] = newTransactionView(t, core.AppearanceFor(t.Category, t.Kind))
	}
	return out
}

type categoryView struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Share  float64         `json:"share"`
}

type dashboardView struct {
	Balance            decimal.Decimal   `json:"balance"`
	TotalIncome        decimal.Decimal   `json:"total_income"`
	TotalExpenses      decimal.Decimal   `json:"total_expenses"`
	MaxExpense         decimal.Decimal   `json:"max_expense"`
	ExpensesByCategory []categoryView    `json:"expenses_by_category"`
	Count              int               `json:"count"`
	ShowingAll         bool              `json:"showing_all"`
	Transactions       []transactionView `json:"transactions"`
}

func newDashboardView(d ledger.Dashboard) dashboardView {
	s := d.Summary
	cats := make([]categoryView, len(s.ExpensesByCategory))
	for i, c := range s.ExpensesByCategory {
		cats[i] = categoryView{Name: c.Name, Amount: c.Amount, Share: s.Share(c)}
	}
	return dashboardView{
		Balance:            s.Balance,
		TotalIncome:        s.TotalIncome,
		TotalExpenses:      s.TotalExpenses,
		MaxExpense:         s.MaxExpense,
		ExpensesByCategory: cats,
		Count:              s.Count,
		ShowingAll:         d.ShowingAll,
		Transactions:       itemViews(d.Items),
	}
}

type monthView struct {
	Year         int               `json:"year"`
	Month        int               `json:"month"`
	Count        int               `json:"count"`
	Transactions []transactionView `json:"transactions"`
}

func newMonthView(m ledger.Month) monthView {
	return monthView{
		Year:         m.Year,
		Month:        int(m.Month),
		Count:        len(m.Items),
		Transactions: itemViews(m.Items),
	}
}

type categoryListView struct {
	Categories []string `json:"categories"`
	Default    string   `json:"default"`
}

func categoriesView() map[core.Kind]categoryListView {
	out := make(map[core.Kind]categoryListView, 2)
	for _, k := range []core.Kind{core.Income, core.Expense} {
		out[k] = categoryListView{Categories: core.CategoriesFor(k), Default: core.DefaultCategory(k)}
	}
	return out
}
