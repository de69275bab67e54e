// Package money provides exact monetary arithmetic in integer minor units.
//
// All ledger math happens on Cents (int64). Decimal strings only exist at the
// API boundary, where they are parsed and formatted with shopspring/decimal
// so that "10.10" never turns into 10.099999.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in the smallest currency unit (e.g. cents).
// Positive and negative values are both meaningful: a member's balance is
// positive when they are owed money and negative when they owe.
type Cents int64

// minorDigits is the precision of the minor unit. Fixed at 2 (cent-based
// currencies); zero-decimal currencies are out of scope.
const minorDigits = 2

// Parse converts a decimal amount string such as "12.34" into Cents.
// It rejects values with more than two fractional digits rather than
// rounding silently.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Shift(minorDigits)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Cents(scaled.IntPart()), nil
}

// String formats the amount as a decimal string, e.g. 1234 -> "12.34".
func (c Cents) String() string {
	return decimal.New(int64(c), -minorDigits).StringFixed(minorDigits)
}

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// IsZero reports whether the amount is exactly zero.
func (c Cents) IsZero() bool { return c == 0 }
