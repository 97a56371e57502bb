// Package ledger keeps the in-memory transaction list shown to the user and
// derives the dashboard and month views from it.
package ledger

import (
	"sync"
	"time"

	"gastitos/internal/core"
)

// RecentLimit is how many transactions the dashboard shows unless the full
// list is requested.
const RecentLimit = 4

// Item is a transaction ready for display. Appearance is derived from the
// category on every read.
type Item struct {
	core.Transaction
	Appearance core.Appearance
}

type Dashboard struct {
	Summary    core.Summary
	Items      []Item
	ShowingAll bool
}

type Month struct {
	Year  int
	Month time.Month
	Items []Item
}

// Ledger holds the transactions most recently created first. It mirrors the
// store and is refreshed from it after updates and deletes.
type Ledger struct {
	mu  sync.RWMutex
	txs []core.Transaction
}

func New() *Ledger {
	return &Ledger{}
}

// Replace swaps the whole list for txs. The slice is copied.
func (l *Ledger) Replace(txs []core.Transaction) {
	cp := make([]core.Transaction, len(txs))
	copy(cp, txs)

	l.mu.Lock()
	l.txs = cp
	l.mu.Unlock()
}

// Prepend puts a newly created transaction at the head of the list.
func (l *Ledger) Prepend(t core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := make([]core.Transaction, 0, len(l.txs)+1)
	txs = append(txs, t)
	l.txs = append(txs, l.txs...)
}

// Snapshot returns a copy of the current list.
func (l *Ledger) Snapshot() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Find returns the cached transaction with id.
func (l *Ledger) Find(id int64) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.txs {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// Dashboard summarizes the whole list and returns the most recent entries,
// or all of them when all is set.
func (l *Ledger) Dashboard(all bool) Dashboard {
	txs := l.Snapshot()
	d := Dashboard{
		Summary:    core.Summarize(txs),
		ShowingAll: all || len(txs) <= RecentLimit,
	}
	if all {
		d.Items = items(txs)
	} else {
		d.Items = items(core.Recent(txs, RecentLimit))
	}
	return d
}

// Month returns the transactions dated in the calendar month of now, newest
// day first.
func (l *Ledger) Month(now time.Time) Month {
	year, month, _ := now.Date()
	return Month{
		Year:  year,
		Month: month,
		Items: items(core.MonthView(l.Snapshot(), year, int(month))),
	}
}

func items(txs []core.Transaction) []Item {
	out := make([]Item, len(txs))
	for i, t := range txs {
		out[i] = Item{Transaction: t, Appearance: core.AppearanceFor(t.Category, t.Kind)}
	}
	return out
}
