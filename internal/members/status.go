// internal/members/status.go
package members

import "time"

// LatestMembership returns the membership with the maximum end date, or nil
// for an empty history. Ties on end date are broken by the highest ID so the
// result is deterministic regardless of input order.
func LatestMembership(memberships []Membership) *Membership {
	var latest *Membership
	for i := range memberships {
		m := &memberships[i]
		if latest == nil {
			latest = m
			continue
		}
		le, me := DateOnly(latest.EndDate), DateOnly(m.EndDate)
		if me.After(le) || (me.Equal(le) && m.ID.String() > latest.ID.String()) {
			latest = m
		}
	}
	return latest
}

// MembershipEndDate returns the end date of the latest membership, or nil if
// the member has none.
func MembershipEndDate(memberships []Membership) *time.Time {
	latest := LatestMembership(memberships)
	if latest == nil {
		return nil
	}
	end := DateOnly(latest.EndDate)
	return &end
}

// IsActive reports whether the latest membership exists and runs through
// today or later. A member with zero memberships is never active.
func IsActive(memberships []Membership, today time.Time) bool {
	latest := LatestMembership(memberships)
	if latest == nil {
		return false
	}
	return !DateOnly(latest.EndDate).Before(DateOnly(today))
}

// NextStatus applies the automatic transition rules after a membership
// changes. A deleted status is never overridden; only the two transitions
// inactive->active and active->inactive ever fire. The second return value
// reports whether the status changed and needs persisting.
func NextStatus(current Status, active bool) (Status, bool) {
	if current == StatusDeleted {
		return current, false
	}
	if active && current == StatusInactive {
		return StatusActive, true
	}
	if !active && current == StatusActive {
		return StatusInactive, true
	}
	return current, false
}

// DerivedStatus is the reconciliation variant of NextStatus: it recomputes
// the correct status from scratch rather than applying a transition, so a
// member with no memberships lands on inactive from any non-deleted starting
// state. Callers must skip deleted members before calling this.
func DerivedStatus(current Status, active bool) (Status, bool) {
	correct := StatusInactive
	if active {
		correct = StatusActive
	}
	return correct, correct != current
}
