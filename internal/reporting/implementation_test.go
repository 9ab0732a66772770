// internal/reporting/implementation_test.go
package reporting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"combatrix/internal/members"
	"combatrix/internal/platform/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store *members.MemStore
	svc   Service
	today time.Time
}

func newFixture(t *testing.T, today time.Time) *fixture {
	t.Helper()
	store := members.NewMemStore()
	return &fixture{
		store: store,
		svc:   NewService(store, func() time.Time { return today }, logger.NewNop()),
		today: today,
	}
}

func (f *fixture) member(t *testing.T, name string, status members.Status, joined time.Time) *members.Member {
	t.Helper()
	m := &members.Member{
		ID:         uuid.New(),
		Name:       name,
		Email:      name + "@example.com",
		DateJoined: joined,
		Status:     status,
	}
	require.NoError(t, f.store.CreateMember(context.Background(), m))
	return m
}

func (f *fixture) membership(t *testing.T, memberID uuid.UUID, start, end time.Time, price, combatrix, fitshala string) *members.Membership {
	t.Helper()
	ms := &members.Membership{
		ID:             uuid.New(),
		MemberID:       memberID,
		StartDate:      start,
		EndDate:        end,
		Price:          decimal.RequireFromString(price),
		CombatrixShare: decimal.RequireFromString(combatrix),
		FitshalaShare:  decimal.RequireFromString(fitshala),
		CreatedAt:      start,
	}
	require.NoError(t, f.store.CreateMembership(context.Background(), ms))
	return ms
}

func TestMonthlySummarySingleMonth(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	ctx := context.Background()

	alice := f.member(t, "Alice", members.StatusActive, day(2024, time.January, 10))
	bob := f.member(t, "Bob", members.StatusActive, day(2024, time.January, 12))
	f.membership(t, alice.ID, day(2024, time.January, 15), day(2024, time.February, 14), "100.00", "60.00", "40.00")
	f.membership(t, bob.ID, day(2024, time.January, 20), day(2024, time.February, 19), "200.00", "120.00", "80.00")

	rows, err := f.svc.MonthlySummary(ctx, members.Filter{Status: members.FilterAll})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	jan := rows[0]
	assert.Equal(t, "2024-01", jan.Key)
	assert.Equal(t, "January 2024", jan.Month)
	assert.Equal(t, 2, jan.NewMembers)
	assert.Equal(t, 2, jan.NewMemberships)
	assert.Equal(t, "300.00", jan.TotalRevenue.StringFixed(2))
	assert.Equal(t, "180.00", jan.CombatrixShare.StringFixed(2))
	assert.Equal(t, "120.00", jan.FitshalaShare.StringFixed(2))
	assert.Equal(t, []string{"Alice", "Bob"}, jan.MemberNames)
	assert.Equal(t, []string{"Alice ($100.00)", "Bob ($200.00)"}, jan.MembershipDetails)

	total := rows[1]
	assert.Equal(t, TotalLabel, total.Month)
	assert.Equal(t, 2, total.NewMembers)
	assert.Equal(t, 2, total.NewMemberships)
	assert.Equal(t, "300.00", total.TotalRevenue.StringFixed(2))
	assert.Equal(t, "180.00", total.CombatrixShare.StringFixed(2))
	assert.Equal(t, "120.00", total.FitshalaShare.StringFixed(2))
	assert.Empty(t, total.MemberNames)
	assert.Empty(t, total.MembershipDetails)
}

func TestMonthlySummaryEmptyStore(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))

	rows, err := f.svc.MonthlySummary(context.Background(), members.Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows) // no months, no TOTAL row
}

func TestMonthlySummaryOrderedByMonth(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	m := f.member(t, "Zed", members.StatusActive, day(2023, time.December, 1))
	f.membership(t, m.ID, day(2024, time.March, 1), day(2024, time.March, 31), "50.00", "30.00", "20.00")
	f.membership(t, m.ID, day(2024, time.January, 1), day(2024, time.January, 31), "50.00", "30.00", "20.00")

	rows, err := f.svc.MonthlySummary(context.Background(), members.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-03"}, []string{rows[0].Key, rows[1].Key, rows[2].Key})
	assert.Equal(t, TotalLabel, rows[3].Month)
}

func TestMonthlySummaryTotalInvariant(t *testing.T) {
	// The TOTAL row's revenue equals the sum of price over every
	// membership the filter includes, to the cent.
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, day(2024, time.June, 1))
		ctx := context.Background()

		n := rapid.IntRange(1, 5).Draw(rt, "members")
		want := decimal.Zero
		for i := 0; i < n; i++ {
			m := f.member(t, fmt.Sprintf("member%d", i), members.StatusActive,
				day(2024, time.Month(rapid.IntRange(1, 12).Draw(rt, "joinMonth")), 15))
			k := rapid.IntRange(0, 4).Draw(rt, "memberships")
			for j := 0; j < k; j++ {
				cents := rapid.Int64Range(0, 500000).Draw(rt, "cents")
				price := decimal.New(cents, -2)
				half := price.Div(decimal.NewFromInt(2)).Round(2)
				start := day(2024, time.Month(rapid.IntRange(1, 12).Draw(rt, "startMonth")), 10)
				ms := &members.Membership{
					ID:             uuid.New(),
					MemberID:       m.ID,
					StartDate:      start,
					EndDate:        start.AddDate(0, 1, 0),
					Price:          price,
					CombatrixShare: half,
					FitshalaShare:  price.Sub(half),
					CreatedAt:      start,
				}
				require.NoError(t, f.store.CreateMembership(ctx, ms))
				want = want.Add(price)
			}
		}

		rows, err := f.svc.MonthlySummary(ctx, members.Filter{Status: members.FilterAll})
		require.NoError(t, err)
		require.NotEmpty(t, rows)

		total := rows[len(rows)-1]
		require.Equal(t, TotalLabel, total.Month)
		assert.True(t, total.TotalRevenue.Equal(want),
			"TOTAL %s != sum of prices %s", total.TotalRevenue, want)
		assert.True(t, total.CombatrixShare.Add(total.FitshalaShare).Equal(want))
	})
}

func TestMonthlySummaryStatusFilterFollowsMember(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	active := f.member(t, "Active", members.StatusActive, day(2024, time.January, 1))
	deleted := f.member(t, "Gone", members.StatusDeleted, day(2024, time.January, 2))
	f.membership(t, active.ID, day(2024, time.January, 5), day(2024, time.February, 5), "100.00", "60.00", "40.00")
	f.membership(t, deleted.ID, day(2024, time.January, 6), day(2024, time.February, 6), "999.00", "500.00", "499.00")

	rows, err := f.svc.MonthlySummary(context.Background(), members.Filter{Status: members.FilterActive})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].NewMembers)
	assert.Equal(t, 1, rows[0].NewMemberships)
	assert.Equal(t, "100.00", rows[0].TotalRevenue.StringFixed(2))
}

func TestDetailedReportRows(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	ctx := context.Background()

	m := f.member(t, "Dana", members.StatusActive, day(2024, time.January, 10))
	f.membership(t, m.ID, day(2024, time.January, 15), day(2024, time.February, 14), "100.00", "60.00", "40.00")
	f.membership(t, m.ID, day(2024, time.May, 1), day(2024, time.July, 1), "200.00", "120.00", "80.00")

	rows, err := f.svc.DetailedMembershipReport(ctx, members.Filter{Status: members.FilterAll})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "Dana", first.MemberName)
	assert.Equal(t, "dana@example.com", first.MemberEmail)
	assert.Equal(t, "Active", first.MemberStatus)
	assert.Equal(t, day(2024, time.January, 15), first.StartDate)
	assert.Equal(t, 31, first.DurationDays) // Jan 15 .. Feb 14 inclusive
	assert.Equal(t, "January 2024", first.Month)
	assert.True(t, first.IsCurrentlyActive, "activity follows the latest membership, not this row")

	second := rows[1]
	assert.Equal(t, day(2024, time.May, 1), second.StartDate)
	assert.Equal(t, 62, second.DurationDays)
	assert.True(t, second.IsCurrentlyActive)
}

func TestDetailedReportDurationLaw(t *testing.T) {
	// Duration (Days) = end - start + 1 for every row, and >= 1.
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, day(2024, time.June, 1))
		m := f.member(t, "prop", members.StatusActive, day(2024, time.January, 1))

		start := day(2024, time.January, 1).AddDate(0, 0, rapid.IntRange(0, 365).Draw(rt, "startOffset"))
		span := rapid.IntRange(0, 365).Draw(rt, "span")
		f.membership(t, m.ID, start, start.AddDate(0, 0, span), "100.00", "60.00", "40.00")

		rows, err := f.svc.DetailedMembershipReport(context.Background(), members.Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Equal(t, span+1, rows[0].DurationDays)
		assert.GreaterOrEqual(t, rows[0].DurationDays, 1)
	})
}

func TestDashboardStats(t *testing.T) {
	today := day(2024, time.June, 1)
	f := newFixture(t, today)
	ctx := context.Background()

	inWindow := f.member(t, "soon", members.StatusActive, day(2024, time.January, 1))
	f.membership(t, inWindow.ID, day(2024, time.May, 10), day(2024, time.June, 10), "100.00", "60.00", "40.00")

	outWindow := f.member(t, "later", members.StatusActive, day(2024, time.January, 2))
	f.membership(t, outWindow.ID, day(2024, time.May, 20), day(2024, time.June, 20), "200.00", "120.00", "80.00")

	expired := f.member(t, "past", members.StatusInactive, day(2024, time.January, 3))
	f.membership(t, expired.ID, day(2024, time.April, 1), day(2024, time.May, 1), "50.00", "30.00", "20.00")

	f.member(t, "empty", members.StatusInactive, day(2024, time.January, 4))

	stats, err := f.svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalMembers)
	assert.Equal(t, 2, stats.ActiveMembers) // soon + later, counted member by member
	assert.Equal(t, "350.00", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "210.00", stats.CombatrixRevenue.StringFixed(2))
	assert.Equal(t, "140.00", stats.FitshalaRevenue.StringFixed(2))

	// Window [2024-06-01, 2024-06-16]: 06-10 is in, 06-20 and 05-01 are out.
	require.Len(t, stats.ExpiringSoon, 1)
	assert.Equal(t, "soon", stats.ExpiringSoon[0].MemberName)
	assert.Equal(t, day(2024, time.June, 10), stats.ExpiringSoon[0].EndDate)
}

func TestDashboardExpiringWindowBoundaries(t *testing.T) {
	today := day(2024, time.June, 1)
	f := newFixture(t, today)

	edge := f.member(t, "edge", members.StatusActive, day(2024, time.January, 1))
	f.membership(t, edge.ID, day(2024, time.May, 1), today, "10.00", "6.00", "4.00")                      // ends today
	f.membership(t, edge.ID, day(2024, time.May, 2), today.AddDate(0, 0, 15), "10.00", "6.00", "4.00")   // last day in window
	f.membership(t, edge.ID, day(2024, time.May, 3), today.AddDate(0, 0, 16), "10.00", "6.00", "4.00")   // one past
	f.membership(t, edge.ID, day(2024, time.May, 4), today.AddDate(0, 0, -1), "10.00", "6.00", "4.00")   // already expired

	stats, err := f.svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats.ExpiringSoon, 2)
}

func TestRevenueAnalysis(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	ctx := context.Background()

	a := f.member(t, "a", members.StatusActive, day(2024, time.January, 1))
	b := f.member(t, "b", members.StatusDeleted, day(2024, time.January, 2))
	f.membership(t, a.ID, day(2024, time.January, 10), day(2024, time.February, 10), "100.00", "60.00", "40.00")
	f.membership(t, a.ID, day(2024, time.February, 10), day(2024, time.March, 10), "100.00", "60.00", "40.00")
	f.membership(t, b.ID, day(2024, time.February, 20), day(2024, time.March, 20), "300.00", "150.00", "150.00")
	f.membership(t, b.ID, day(2024, time.May, 1), day(2024, time.June, 1), "500.00", "250.00", "250.00")

	start := day(2024, time.January, 1)
	end := day(2024, time.March, 1)
	analysis, err := f.svc.RevenueAnalysis(ctx, &start, &end)
	require.NoError(t, err)

	// No status filter: the deleted member's February membership counts.
	assert.Equal(t, "500.00", analysis.TotalRevenue.StringFixed(2))
	assert.Equal(t, "270.00", analysis.CombatrixRevenue.StringFixed(2))
	assert.Equal(t, "230.00", analysis.FitshalaRevenue.StringFixed(2))
	assert.Equal(t, 2, analysis.MemberCount)

	require.Len(t, analysis.Monthly, 2)
	assert.Equal(t, "2024-01", analysis.Monthly[0].Key)
	assert.Equal(t, 1, analysis.Monthly[0].Memberships)
	assert.Equal(t, "2024-02", analysis.Monthly[1].Key)
	assert.Equal(t, 2, analysis.Monthly[1].Memberships)
	assert.Equal(t, "400.00", analysis.Monthly[1].Revenue.StringFixed(2))
}

func TestRevenueAnalysisEmpty(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))

	analysis, err := f.svc.RevenueAnalysis(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", analysis.TotalRevenue.StringFixed(2))
	assert.Zero(t, analysis.MemberCount)
	assert.Empty(t, analysis.Monthly)
}

func TestSummaryStatisticsDeletedFilter(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))

	f.member(t, "a", members.StatusActive, day(2024, time.January, 1))
	f.member(t, "b", members.StatusActive, day(2024, time.January, 2))
	f.member(t, "c", members.StatusDeleted, day(2024, time.January, 3))

	summary, err := f.svc.SummaryStatistics(context.Background(), members.Filter{Status: members.FilterDeleted})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalMembers)
	assert.Contains(t, summary.FilterNote, "Status: Deleted")
}

func TestSummaryStatisticsLines(t *testing.T) {
	f := newFixture(t, day(2024, time.June, 1))
	m := f.member(t, "a", members.StatusActive, day(2024, time.January, 1))
	f.membership(t, m.ID, day(2024, time.January, 10), day(2024, time.February, 10), "100.00", "60.00", "40.00")

	start := day(2024, time.January, 1)
	summary, err := f.svc.SummaryStatistics(context.Background(), members.Filter{Status: members.FilterAll, Start: &start})
	require.NoError(t, err)

	lines := summary.Lines()
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Total Members (Filtered: 2024-01-01 to Present): 1")
	assert.Contains(t, lines[3], "Rs100.00")
}
