// internal/members/service.go
package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines the interface for the member ledger service.
type Service interface {
	RegisterMember(ctx context.Context, in RegisterMemberInput) (*Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*MemberDetail, error)
	ListMembers(ctx context.Context, f Filter) ([]MemberSummary, error)
	UpdateMember(ctx context.Context, id uuid.UUID, in RegisterMemberInput) (*Member, error)
	// SetMemberStatus applies an explicit administrative transition,
	// including to and from deleted.
	SetMemberStatus(ctx context.Context, id uuid.UUID, status Status) error
	// DeleteMember soft-deletes by default; hard removes the row and
	// cascades to memberships.
	DeleteMember(ctx context.Context, id uuid.UUID, hard bool) error

	// CreateMembership and UpdateMembership persist the membership and
	// reconsider the owning member's status in one atomic unit.
	CreateMembership(ctx context.Context, in MembershipInput) (*Membership, error)
	UpdateMembership(ctx context.Context, id uuid.UUID, in MembershipInput) (*Membership, error)

	// AutoUpdateStatus applies the automatic transition rules to one
	// member. The membership write path calls this itself; it is exposed
	// for callers that change membership reality out of band.
	AutoUpdateStatus(ctx context.Context, memberID uuid.UUID) error

	// Reconcile recomputes the status of every non-deleted member. In
	// dry-run mode it reports identical counts without persisting.
	Reconcile(ctx context.Context, dryRun bool) (*ReconcileResult, error)
	StatusBreakdown(ctx context.Context) (map[Status]int, error)
}

// RegisterMemberInput carries the writable member fields. DateJoined
// defaults to today when nil.
type RegisterMemberInput struct {
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PhoneNumber            string     `json:"phone_number"`
	EmergencyContactName   string     `json:"emergency_contact_name"`
	EmergencyContactNumber string     `json:"emergency_contact_number"`
	DateJoined             *time.Time `json:"date_joined,omitempty"`
}

// MembershipInput carries the writable membership fields.
type MembershipInput struct {
	MemberID       uuid.UUID       `json:"member_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Price          decimal.Decimal `json:"price"`
	CombatrixShare decimal.Decimal `json:"combatrix_share"`
	FitshalaShare  decimal.Decimal `json:"fitshala_share"`
}

// MemberSummary is the list-view shape: the member plus its derived fields.
type MemberSummary struct {
	Member
	IsActive          bool            `json:"is_active"`
	MembershipEndDate *time.Time      `json:"membership_end_date"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

// MemberDetail is the detail-view shape: summary fields plus the full
// membership history and per-partner revenue totals.
type MemberDetail struct {
	MemberSummary
	Memberships    []Membership    `json:"memberships"`
	CombatrixTotal decimal.Decimal `json:"combatrix_total_share"`
	FitshalaTotal  decimal.Decimal `json:"fitshala_total_share"`
}

// ReconcileResult summarizes a bulk status reconciliation pass.
type ReconcileResult struct {
	DryRun            bool           `json:"dry_run"`
	TotalProcessed    int            `json:"total_processed"`
	UpdatedToActive   int            `json:"updated_to_active"`
	UpdatedToInactive int            `json:"updated_to_inactive"`
	AlreadyCorrect    int            `json:"already_correct"`
	NoMembership      int            `json:"no_membership"`
	SkippedDeleted    int            `json:"skipped_deleted"`
	Changes           []StatusChange `json:"changes"`
}

// Updated is the number of members the pass changed (or would change).
func (r *ReconcileResult) Updated() int {
	return r.UpdatedToActive + r.UpdatedToInactive
}

// StatusChange records one member the reconciliation pass updated.
type StatusChange struct {
	MemberID uuid.UUID  `json:"member_id"`
	Name     string     `json:"name"`
	From     Status     `json:"from"`
	To       Status     `json:"to"`
	EndDate  *time.Time `json:"membership_end_date,omitempty"`
}
