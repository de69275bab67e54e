// Package models defines the core domain models for Splitpot.
//
// # Models
//
//   - User: Registered account, identified by email.
//   - Group: A set of members who share expenses; owns one ledger.
//   - Expense: An amount paid by one member, split into per-member shares.
//   - Settlement: A direct payment between two members to clear debt.
//
// # Design Principles
//
// 1. **Exact arithmetic**: amounts are money.Cents (integer minor units), never floats
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships
// 3. **Immutable ledger effects**: an expense or settlement records the exact
// deltas it applied to the group ledger, so deletion reverses them verbatim
// even if the record's fields were edited in between
package models
