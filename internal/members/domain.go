// internal/members/domain.go
package members

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a member. Active and inactive are managed
// automatically from membership history; deleted is set only by an explicit
// administrative action and is never touched by automatic derivation.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// Display returns the human-readable label for a status.
func (s Status) Display() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	case StatusDeleted:
		return "Deleted"
	}
	return string(s)
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusDeleted
}

// Domain errors. Handlers and commands map these onto their own surfaces.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Member represents a person registered with the gym.
type Member struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	Name                   string    `db:"name" json:"name"`
	Email                  string    `db:"email" json:"email"`
	PhoneNumber            string    `db:"phone_number" json:"phone_number"`
	EmergencyContactName   string    `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactNumber string    `db:"emergency_contact_number" json:"emergency_contact_number"`
	DateJoined             time.Time `db:"date_joined" json:"date_joined"`
	Status                 Status    `db:"status" json:"status"`
}

// Membership is one paid subscription period belonging to a member. Both
// start and end dates are inclusive. The price is split between the two
// business partners; the split is validated on the write path but must be
// tolerated if legacy rows violate it.
type Membership struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	MemberID       uuid.UUID       `db:"member_id" json:"member_id"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	Price          decimal.Decimal `db:"price" json:"price"`
	CombatrixShare decimal.Decimal `db:"combatrix_share" json:"combatrix_share"`
	FitshalaShare  decimal.Decimal `db:"fitshala_share" json:"fitshala_share"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// MembershipRecord is a membership joined with the fields of its owning
// member that reports need.
type MembershipRecord struct {
	Membership
	MemberName   string    `db:"member_name" json:"member_name"`
	MemberEmail  string    `db:"member_email" json:"member_email"`
	MemberStatus Status    `db:"member_status" json:"member_status"`
	MemberJoined time.Time `db:"member_joined" json:"member_joined"`
}

// StatusFilter selects members by status in list and aggregation queries.
type StatusFilter string

const (
	FilterActive   StatusFilter = "active"
	FilterInactive StatusFilter = "inactive"
	FilterDeleted  StatusFilter = "deleted"
	FilterAll      StatusFilter = "all"
)

// ParseStatusFilter validates a status filter value. An empty string means
// no filtering and parses as FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "":
		return FilterAll, nil
	case FilterActive, FilterInactive, FilterDeleted, FilterAll:
		return StatusFilter(s), nil
	}
	return "", fmt.Errorf("%w: status filter %q (want active, inactive, deleted or all)", ErrInvalidInput, s)
}

// Filter is the shared query filter for list and aggregation operations.
// Members are matched by date_joined against the range, memberships by their
// own start_date; the two facts are filtered independently. The status
// filter matches members directly and memberships through their owning
// member.
type Filter struct {
	Status StatusFilter
	Start  *time.Time
	End    *time.Time
}

// Describe renders the active filters the way the report summary prints
// them. Empty when no filter is set.
func (f Filter) Describe() string {
	var out string
	if f.Start != nil || f.End != nil {
		from, to := "Beginning", "Present"
		if f.Start != nil {
			from = f.Start.Format(DateLayout)
		}
		if f.End != nil {
			to = f.End.Format(DateLayout)
		}
		out += fmt.Sprintf(" (Filtered: %s to %s)", from, to)
	}
	if f.Status != "" && f.Status != FilterAll {
		out += fmt.Sprintf(" (Status: %s)", Status(f.Status).Display())
	}
	return out
}

// DateLayout is the wire format for all dates crossing the module boundary.
const DateLayout = "2006-01-02"

// ParseDate parses an inclusive date bound. The field name is carried in the
// error so callers can surface which flag or parameter was bad.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q (want YYYY-MM-DD)", ErrInvalidInput, field, value)
	}
	return t, nil
}

// DateOnly truncates a timestamp to its calendar date in UTC. All date
// comparisons in the module go through this so "today" is unambiguous.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthKey is the sortable bucket key for a date's calendar month.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabel is the display label for a date's calendar month.
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}
