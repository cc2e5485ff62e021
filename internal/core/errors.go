package core

import "errors"

// Sentinel errors for the ledger and budget operations. Anything the
// storage layer returns that does not match one of these is an I/O
// failure and is wrapped with fmt.Errorf("...: %w", err) at the call
// site.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyRecipient     = errors.New("empty recipient")
	ErrInvalidPaymentMode = errors.New("invalid mode of payment")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrBudgetExceeded     = errors.New("amount exceeds remaining budget")
	ErrNotFound           = errors.New("expense not found")
)

// IsValidation reports whether err is a malformed-input error, as
// opposed to a budget rejection, a missing record or a storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyRecipient) ||
		errors.Is(err, ErrInvalidPaymentMode) ||
		errors.Is(err, ErrInvalidCategory)
}
