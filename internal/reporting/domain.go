// internal/reporting/domain.go
package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TotalLabel is the month label of the synthetic trailing row that sums all
// numeric columns of the monthly summary.
const TotalLabel = "TOTAL"

// MonthRow is one calendar-month bucket of the monthly summary. Monetary
// columns stay decimal through accumulation; they become floats only at the
// export boundary.
type MonthRow struct {
	Key               string          `json:"key"`
	Month             string          `json:"month"`
	NewMembers        int             `json:"new_members"`
	NewMemberships    int             `json:"new_memberships"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	CombatrixShare    decimal.Decimal `json:"combatrix_share"`
	FitshalaShare     decimal.Decimal `json:"fitshala_share"`
	MemberNames       []string        `json:"member_names"`
	MembershipDetails []string        `json:"membership_details"`
}

// DetailRow is one membership in the detailed report.
type DetailRow struct {
	MemberName        string          `json:"member_name"`
	MemberEmail       string          `json:"member_email"`
	MemberStatus      string          `json:"member_status"`
	MemberJoinDate    time.Time       `json:"member_join_date"`
	StartDate         time.Time       `json:"membership_start"`
	EndDate           time.Time       `json:"membership_end"`
	DurationDays      int             `json:"duration_days"`
	Month             string          `json:"month"`
	Price             decimal.Decimal `json:"price"`
	CombatrixShare    decimal.Decimal `json:"combatrix_share"`
	FitshalaShare     decimal.Decimal `json:"fitshala_share"`
	IsCurrentlyActive bool            `json:"is_currently_active"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ExpiringMembership is one entry of the dashboard's expiring-soon window.
type ExpiringMembership struct {
	MembershipID uuid.UUID `json:"membership_id"`
	MemberName   string    `json:"member_name"`
	EndDate      time.Time `json:"end_date"`
}

// DashboardStats is the composite dashboard payload. Its reads are
// independent; a concurrent write between them may yield a slightly
// inconsistent composite, which is acceptable here.
type DashboardStats struct {
	TotalMembers     int                  `json:"total_members"`
	ActiveMembers    int                  `json:"active_members"`
	TotalRevenue     decimal.Decimal      `json:"total_revenue"`
	CombatrixRevenue decimal.Decimal      `json:"combatrix_revenue"`
	FitshalaRevenue  decimal.Decimal      `json:"fitshala_revenue"`
	ExpiringSoon     []ExpiringMembership `json:"expiring_soon"`
}

// MonthRevenue is one month of the revenue-analysis breakdown.
type MonthRevenue struct {
	Key            string          `json:"key"`
	Month          string          `json:"month"`
	Revenue        decimal.Decimal `json:"revenue"`
	CombatrixShare decimal.Decimal `json:"combatrix_share"`
	FitshalaShare  decimal.Decimal `json:"fitshala_share"`
	Memberships    int             `json:"memberships"`
}

// RevenueAnalysis is the date-ranged revenue rollup.
type RevenueAnalysis struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	CombatrixRevenue decimal.Decimal `json:"combatrix_revenue"`
	FitshalaRevenue  decimal.Decimal `json:"fitshala_revenue"`
	MemberCount      int             `json:"member_count"`
	Monthly          []MonthRevenue  `json:"monthly_breakdown"`
}

// Summary is the flattened totals variant of the monthly summary, intended
// for console output.
type Summary struct {
	TotalMembers     int             `json:"total_members"`
	TotalMemberships int             `json:"total_memberships"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	CombatrixShare   decimal.Decimal `json:"combatrix_share"`
	FitshalaShare    decimal.Decimal `json:"fitshala_share"`
	FilterNote       string          `json:"filter_note"`
}

// Lines renders the summary the way the report command prints it.
func (s *Summary) Lines() []string {
	return []string{
		"=== SUMMARY STATISTICS ===",
		fmt.Sprintf("Total Members%s: %d", s.FilterNote, s.TotalMembers),
		fmt.Sprintf("Total Memberships%s: %d", s.FilterNote, s.TotalMemberships),
		fmt.Sprintf("Total Revenue%s: Rs%s", s.FilterNote, s.TotalRevenue.StringFixed(2)),
		fmt.Sprintf("Total Combatrix Share%s: Rs%s", s.FilterNote, s.CombatrixShare.StringFixed(2)),
		fmt.Sprintf("Total Fitshala Share%s: Rs%s", s.FilterNote, s.FitshalaShare.StringFixed(2)),
	}
}

// ExpiringWindowDays is the dashboard's look-ahead for expiring
// memberships, inclusive of both window endpoints.
const ExpiringWindowDays = 15
