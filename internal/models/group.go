package models

// Group represents a set of members who share expenses.
// Each group owns one ledger: a mapping from member ID to net balance.
// The sum of all balances in a group's ledger is always exactly zero.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// OwnerID is the user who created the group. The owner may delete any
	// transaction in the group and remove members.
	OwnerID string

	// Members is the list of member user IDs in this group.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the given user ID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
