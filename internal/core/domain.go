package core

import (
	"strings"
	"time"
)

// Layouts for the date and time-of-day columns of an expense record.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

type (
	// PaymentMode is how an expense was paid.
	PaymentMode string

	// Category is the spending category of an expense.
	Category string

	// Money is an exact currency amount in cents. Budget arithmetic must
	// never drift, so floats are kept out of the core entirely.
	Money struct {
		Cents int64
	}

	// Expense is one recorded spend event. Records are immutable: they
	// are created by the add operation and destroyed by delete, never
	// updated in place.
	Expense struct {
		ID        int64
		UserID    int64
		Amount    Money
		Recipient string
		Mode      PaymentMode
		Category  Category
		Date      string // YYYY-MM-DD, local clock at insert
		Time      string // HH:MM:SS, local clock at insert
	}
)

const (
	ModeCash   PaymentMode = "Cash"
	ModeCard   PaymentMode = "Card"
	ModeOnline PaymentMode = "Online"
	ModeOther  PaymentMode = "Other"
)

const (
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryShopping  Category = "Shopping"
	CategoryUtilities Category = "Utilities"
	CategoryOther     Category = "Other"
)

// PaymentModes lists every valid mode of payment.
func PaymentModes() []PaymentMode {
	return []PaymentMode{ModeCash, ModeCard, ModeOnline, ModeOther}
}

// Categories lists every valid spending category.
func Categories() []Category {
	return []Category{CategoryFood, CategoryTransport, CategoryShopping, CategoryUtilities, CategoryOther}
}

// Valid reports whether the mode is one of the fixed enumeration.
func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCard, ModeOnline, ModeOther:
		return true
	default:
		return false
	}
}

// Valid reports whether the category is one of the fixed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryUtilities, CategoryOther:
		return true
	default:
		return false
	}
}

// ParsePaymentMode maps free text from the presentation layer onto the
// enumeration, case-insensitively. Empty or unknown input is rejected.
func ParsePaymentMode(s string) (PaymentMode, error) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentModes() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", ErrInvalidPaymentMode
}

// ParseCategory maps free text onto the category enumeration,
// case-insensitively. Empty or unknown input is rejected.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks every invariant of a fully-populated expense record.
// The store calls this defensively even though the accountant validates
// before delegating.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Recipient) == "" {
		return ErrEmptyRecipient
	}
	if !e.Mode.Valid() {
		return ErrInvalidPaymentMode
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return err
	}
	if _, err := time.Parse(TimeLayout, e.Time); err != nil {
		return err
	}
	return nil
}
