package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// MaxDescriptionLength is the longest description accepted, in characters.
const MaxDescriptionLength = 50

type (
	Kind string

	Date struct {
		time.Time
	}

	// NewTransaction is a transaction that has not been stored yet.
	NewTransaction struct {
		Kind        Kind
		Amount      decimal.Decimal // positive for income, negative for expense
		Description string
		Category    string
		Date        Date
	}

	Transaction struct {
		ID          int64
		Kind        Kind
		Amount      decimal.Decimal
		Description string
		Category    string
		Date        Date
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrSignMismatch     = errors.New("amount sign does not match kind")
	ErrEmptyDescription = errors.New("empty description")
	ErrLongDescription  = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidCategory  = errors.New("invalid category")
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind converts user input into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Display renders the date as month/day/year without zero padding, the
// format used for the stored text column.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", d.Month(), d.Day(), d.Year())
}

// SameMonth reports whether d falls in the given calendar month.
func (d Date) SameMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ParseDisplayDate parses month/day/year text (US ordering). ISO dates
// (2006-01-02) are accepted as well.
func ParseDisplayDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, ErrInvalidDate
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return Date{}, ErrInvalidDate
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if month > 12 || day > 31 {
		return Date{}, ErrInvalidDate
	}
	d := NewDate(year, month, day)
	// Reject dates that time.Date normalized, e.g. 2/30.
	if d.Month() != month || d.Day() != day {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

func (t NewTransaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if (t.Kind == Income) != t.Amount.IsPositive() {
		return ErrSignMismatch
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrLongDescription
	}
	if !IsValidCategory(t.Kind, t.Category) {
		return ErrInvalidCategory
	}
	return t.Date.Validate()
}

// Magnitude returns the absolute amount as entered by the user.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// Draft returns the mutable part of t, as passed to updates.
func (t Transaction) Draft() NewTransaction {
	return NewTransaction{
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
	}
}

// WithID materializes a stored record from t.
func (t NewTransaction) WithID(id int64, createdAt time.Time) Transaction {
	return Transaction{
		ID:          id,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
		CreatedAt:   createdAt,
	}
}
