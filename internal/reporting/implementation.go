// internal/reporting/implementation.go
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"combatrix/internal/members"
	"combatrix/internal/platform/logger"
)

// service implements the Service interface.
type service struct {
	store  members.Store
	now    func() time.Time
	log    *logger.Logger
	tracer trace.Tracer
}

// NewService creates a new aggregation engine over the given store.
func NewService(store members.Store, now func() time.Time, log *logger.Logger) Service {
	return &service{
		store:  store,
		now:    now,
		log:    log,
		tracer: otel.Tracer("combatrix/reporting"),
	}
}

// MonthlySummary buckets member registrations and membership starts by
// calendar month and appends a trailing TOTAL row when any month exists.
func (s *service) MonthlySummary(ctx context.Context, f members.Filter) ([]MonthRow, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.monthly_summary",
		trace.WithAttributes(attribute.String("filter.status", string(f.Status))))
	defer span.End()

	listed, err := s.store.ListMembers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	memberships, err := s.store.ListMemberships(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	buckets := make(map[string]*MonthRow)
	bucket := func(t time.Time) *MonthRow {
		key := members.MonthKey(t)
		row, ok := buckets[key]
		if !ok {
			row = &MonthRow{
				Key:               key,
				Month:             members.MonthLabel(t),
				TotalRevenue:      decimal.Zero,
				CombatrixShare:    decimal.Zero,
				FitshalaShare:     decimal.Zero,
				MemberNames:       []string{},
				MembershipDetails: []string{},
			}
			buckets[key] = row
		}
		return row
	}

	for _, m := range listed {
		row := bucket(m.DateJoined)
		row.NewMembers++
		row.MemberNames = append(row.MemberNames, m.Name)
	}
	for _, ms := range memberships {
		row := bucket(ms.StartDate)
		row.NewMemberships++
		row.TotalRevenue = row.TotalRevenue.Add(ms.Price)
		row.CombatrixShare = row.CombatrixShare.Add(ms.CombatrixShare)
		row.FitshalaShare = row.FitshalaShare.Add(ms.FitshalaShare)
		row.MembershipDetails = append(row.MembershipDetails,
			fmt.Sprintf("%s ($%s)", ms.MemberName, ms.Price.StringFixed(2)))
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]MonthRow, 0, len(keys)+1)
	for _, key := range keys {
		rows = append(rows, *buckets[key])
	}

	if len(rows) > 0 {
		total := MonthRow{
			Month:             TotalLabel,
			TotalRevenue:      decimal.Zero,
			CombatrixShare:    decimal.Zero,
			FitshalaShare:     decimal.Zero,
			MemberNames:       []string{},
			MembershipDetails: []string{},
		}
		for _, row := range rows {
			total.NewMembers += row.NewMembers
			total.NewMemberships += row.NewMemberships
			total.TotalRevenue = total.TotalRevenue.Add(row.TotalRevenue)
			total.CombatrixShare = total.CombatrixShare.Add(row.CombatrixShare)
			total.FitshalaShare = total.FitshalaShare.Add(row.FitshalaShare)
		}
		rows = append(rows, total)
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

// DetailedMembershipReport returns one row per membership ordered by start
// date. The per-row activity flag follows the same latest-membership rule as
// status derivation, computed over the member's full history regardless of
// the report's filters.
func (s *service) DetailedMembershipReport(ctx context.Context, f members.Filter) ([]DetailRow, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.detailed_report",
		trace.WithAttributes(attribute.String("filter.status", string(f.Status))))
	defer span.End()

	records, err := s.store.ListMemberships(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	// One latest-end pass over the unfiltered ledger so every member's
	// activity is judged against their complete history.
	all, err := s.store.ListMemberships(ctx, members.Filter{Status: members.FilterAll})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	latestEnds := latestEndDates(all)

	today := members.DateOnly(s.now())
	rows := make([]DetailRow, 0, len(records))
	for _, rec := range records {
		start, end := members.DateOnly(rec.StartDate), members.DateOnly(rec.EndDate)
		latestEnd, hasAny := latestEnds[rec.MemberID]
		rows = append(rows, DetailRow{
			MemberName:        rec.MemberName,
			MemberEmail:       rec.MemberEmail,
			MemberStatus:      rec.MemberStatus.Display(),
			MemberJoinDate:    members.DateOnly(rec.MemberJoined),
			StartDate:         start,
			EndDate:           end,
			DurationDays:      int(end.Sub(start).Hours()/24) + 1,
			Month:             members.MonthLabel(start),
			Price:             rec.Price,
			CombatrixShare:    rec.CombatrixShare,
			FitshalaShare:     rec.FitshalaShare,
			IsCurrentlyActive: hasAny && !latestEnd.Before(today),
			CreatedAt:         rec.CreatedAt,
		})
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

func latestEndDates(records []members.MembershipRecord) map[uuid.UUID]time.Time {
	latest := make(map[uuid.UUID]time.Time)
	for _, rec := range records {
		end := members.DateOnly(rec.EndDate)
		if cur, ok := latest[rec.MemberID]; !ok || end.After(cur) {
			latest[rec.MemberID] = end
		}
	}
	return latest
}

// DashboardStats composes the dashboard payload. Active members are counted
// by testing each member's latest membership individually, never from a
// stored flag or aggregate.
func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.dashboard_stats")
	defer span.End()

	listed, err := s.store.ListMembers(ctx, members.Filter{Status: members.FilterAll})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	active := 0
	for _, m := range listed {
		memberships, err := s.store.MembershipsForMember(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load memberships for %s: %w", m.ID, err)
		}
		if members.IsActive(memberships, s.now()) {
			active++
		}
	}

	price, combatrix, fitshala, err := s.store.TotalShares(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	today := members.DateOnly(s.now())
	windowEnd := today.AddDate(0, 0, ExpiringWindowDays)
	expiring, err := s.store.ExpiringBetween(ctx, today, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring memberships: %w", err)
	}

	soon := make([]ExpiringMembership, 0, len(expiring))
	for _, rec := range expiring {
		soon = append(soon, ExpiringMembership{
			MembershipID: rec.ID,
			MemberName:   rec.MemberName,
			EndDate:      members.DateOnly(rec.EndDate),
		})
	}

	span.SetAttributes(
		attribute.Int("members.total", len(listed)),
		attribute.Int("members.active", active),
	)
	return &DashboardStats{
		TotalMembers:     len(listed),
		ActiveMembers:    active,
		TotalRevenue:     price,
		CombatrixRevenue: combatrix,
		FitshalaRevenue:  fitshala,
		ExpiringSoon:     soon,
	}, nil
}

// RevenueAnalysis rolls up memberships by start date within the range, with
// no status filtering.
func (s *service) RevenueAnalysis(ctx context.Context, start, end *time.Time) (*RevenueAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.revenue_analysis")
	defer span.End()

	records, err := s.store.ListMemberships(ctx, members.Filter{
		Status: members.FilterAll,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	analysis := &RevenueAnalysis{
		TotalRevenue:     decimal.Zero,
		CombatrixRevenue: decimal.Zero,
		FitshalaRevenue:  decimal.Zero,
		Monthly:          []MonthRevenue{},
	}

	distinct := make(map[uuid.UUID]struct{})
	buckets := make(map[string]*MonthRevenue)
	for _, rec := range records {
		analysis.TotalRevenue = analysis.TotalRevenue.Add(rec.Price)
		analysis.CombatrixRevenue = analysis.CombatrixRevenue.Add(rec.CombatrixShare)
		analysis.FitshalaRevenue = analysis.FitshalaRevenue.Add(rec.FitshalaShare)
		distinct[rec.MemberID] = struct{}{}

		key := members.MonthKey(rec.StartDate)
		row, ok := buckets[key]
		if !ok {
			row = &MonthRevenue{
				Key:            key,
				Month:          members.MonthLabel(rec.StartDate),
				Revenue:        decimal.Zero,
				CombatrixShare: decimal.Zero,
				FitshalaShare:  decimal.Zero,
			}
			buckets[key] = row
		}
		row.Revenue = row.Revenue.Add(rec.Price)
		row.CombatrixShare = row.CombatrixShare.Add(rec.CombatrixShare)
		row.FitshalaShare = row.FitshalaShare.Add(rec.FitshalaShare)
		row.Memberships++
	}
	analysis.MemberCount = len(distinct)

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		analysis.Monthly = append(analysis.Monthly, *buckets[key])
	}

	span.SetAttributes(attribute.Int("memberships", len(records)))
	return analysis, nil
}

// SummaryStatistics flattens the monthly summary's filter semantics to
// single totals plus a description of the active filters.
func (s *service) SummaryStatistics(ctx context.Context, f members.Filter) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.summary_statistics")
	defer span.End()

	listed, err := s.store.ListMembers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	memberships, err := s.store.ListMemberships(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	summary := &Summary{
		TotalMembers:     len(listed),
		TotalMemberships: len(memberships),
		TotalRevenue:     decimal.Zero,
		CombatrixShare:   decimal.Zero,
		FitshalaShare:    decimal.Zero,
		FilterNote:       f.Describe(),
	}
	for _, ms := range memberships {
		summary.TotalRevenue = summary.TotalRevenue.Add(ms.Price)
		summary.CombatrixShare = summary.CombatrixShare.Add(ms.CombatrixShare)
		summary.FitshalaShare = summary.FitshalaShare.Add(ms.FitshalaShare)
	}

	span.SetAttributes(attribute.Int("members", summary.TotalMembers))
	return summary, nil
}
