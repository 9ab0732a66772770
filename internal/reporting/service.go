// internal/reporting/service.go
package reporting

import (
	"context"
	"time"

	"combatrix/internal/members"
)

// Service defines the interface for the aggregation engine. All operations
// are pure reads, recomputed from the store on every call.
type Service interface {
	MonthlySummary(ctx context.Context, f members.Filter) ([]MonthRow, error)
	DetailedMembershipReport(ctx context.Context, f members.Filter) ([]DetailRow, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	RevenueAnalysis(ctx context.Context, start, end *time.Time) (*RevenueAnalysis, error)
	SummaryStatistics(ctx context.Context, f members.Filter) (*Summary, error)
}
