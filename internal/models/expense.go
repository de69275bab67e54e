package models

import "github.com/splitpot/splitpot/internal/money"

// Expense represents an amount paid by one member on behalf of the group,
// split into per-member shares. The shares must sum exactly to the amount;
// this is validated before the expense is accepted.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the member who paid the full amount.
	PayerID string

	// Description is a human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total paid, in minor units. Always positive.
	Amount money.Cents

	// Shares maps each participating member to the portion they owe.
	// The payer may appear here too; their credit and debit combine.
	Shares map[string]money.Cents

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this expense.
	CreatedBy string
}
