// Package form implements the income/expense dialog: the validation gate in
// front of the store and the bookkeeping that follows a successful write.
package form

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"gastitos/internal/core"
)

// ErrRejected marks input that never reaches the store. It wraps the core
// validation error that caused it.
var ErrRejected = errors.New("input rejected")

// Draft is the raw content of the dialog fields.
type Draft struct {
	Amount      string
	Description string
	Category    string
}

// NewDraft returns an empty draft with the default category for kind.
func NewDraft(kind core.Kind) Draft {
	return Draft{Category: core.DefaultCategory(kind)}
}

// DraftOf fills a draft from a stored transaction, as the edit dialog does.
func DraftOf(t core.Transaction) Draft {
	return Draft{
		Amount:      t.Magnitude().String(),
		Description: t.Description,
		Category:    t.Category,
	}
}

// Normalized is a draft that passed the gate. Amount carries the stored sign.
type Normalized struct {
	Kind        core.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
}

// Normalize validates d for kind and applies the sign convention. Any
// problem is reported as ErrRejected.
func Normalize(kind core.Kind, d Draft) (Normalized, error) {
	if !kind.Valid() {
		return Normalized{}, reject(core.ErrInvalidKind)
	}
	magnitude, err := core.ParseAmount(d.Amount)
	if err != nil {
		return Normalized{}, reject(err)
	}

	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = core.DefaultCategory(kind)
	}

	if !core.IsValidCategory(kind, category) {
		return Normalized{}, reject(core.ErrInvalidCategory)
	}

	desc := strings.TrimSpace(d.Description)
	switch {
	case desc == "":
		return Normalized{}, reject(core.ErrEmptyDescription)
	case utf8.RuneCountInString(desc) > core.MaxDescriptionLength:
		return Normalized{}, reject(core.ErrLongDescription)
	}

	return Normalized{
		Kind:        kind,
		Amount:      core.SignedAmount(kind, magnitude),
		Description: desc,
		Category:    category,
	}, nil
}

// Transaction dates n, producing the record handed to the store.
func (n Normalized) Transaction(date core.Date) core.NewTransaction {
	return core.NewTransaction{
		Kind:        n.Kind,
		Amount:      n.Amount,
		Description: n.Description,
		Category:    n.Category,
		Date:        date,
	}
}

// rejection reads as its cause and matches both the cause and ErrRejected.
type rejection struct {
	cause error
}

func (r rejection) Error() string {
	return r.cause.Error()
}

func (r rejection) Unwrap() []error {
	return []error{ErrRejected, r.cause}
}

func reject(err error) error {
	return rejection{cause: err}
}
