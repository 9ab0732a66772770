// internal/members/store.go
package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the relational backing for members and memberships. All list
// results come back in a deterministic order so reports are reproducible.
type Store interface {
	CreateMember(ctx context.Context, m *Member) error
	MemberByID(ctx context.Context, id uuid.UUID) (*Member, error)
	MemberByEmail(ctx context.Context, email string) (*Member, error)
	// ListMembers filters by status and by date_joined against the range,
	// ordered by date_joined then name.
	ListMembers(ctx context.Context, f Filter) ([]Member, error)
	UpdateMember(ctx context.Context, m *Member) error
	// DeleteMember removes the member and cascades to its memberships.
	DeleteMember(ctx context.Context, id uuid.UUID) error
	CountMembersByStatus(ctx context.Context) (map[Status]int, error)

	CreateMembership(ctx context.Context, m *Membership) error
	UpdateMembership(ctx context.Context, m *Membership) error
	MembershipByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	// MembershipsForMember returns the member's history ordered by end_date
	// descending, then ID descending (the latest-membership order).
	MembershipsForMember(ctx context.Context, memberID uuid.UUID) ([]Membership, error)
	// ListMemberships filters by the owning member's status and by the
	// membership's own start_date against the range, ordered by start_date
	// ascending.
	ListMemberships(ctx context.Context, f Filter) ([]MembershipRecord, error)
	// ExpiringBetween returns memberships whose end_date falls in the
	// inclusive [from, to] window, ordered by end_date ascending.
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]MembershipRecord, error)
	// TotalShares sums price and both partner shares over all memberships.
	TotalShares(ctx context.Context) (price, combatrix, fitshala decimal.Decimal, err error)

	// Transact runs fn against a store view whose writes commit or roll
	// back as one unit.
	Transact(ctx context.Context, fn func(Store) error) error
}
