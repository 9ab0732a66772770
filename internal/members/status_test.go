// internal/members/status_test.go
package members

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func membershipEnding(end time.Time) Membership {
	return Membership{
		ID:             uuid.New(),
		MemberID:       uuid.New(),
		StartDate:      end.AddDate(0, -1, 0),
		EndDate:        end,
		Price:          decimal.NewFromInt(100),
		CombatrixShare: decimal.NewFromInt(60),
		FitshalaShare:  decimal.NewFromInt(40),
	}
}

func TestLatestMembershipEmpty(t *testing.T) {
	assert.Nil(t, LatestMembership(nil))
	assert.Nil(t, MembershipEndDate(nil))
	assert.False(t, IsActive(nil, day(2024, time.June, 1)))
}

func TestLatestMembershipPicksMaxEndDate(t *testing.T) {
	a := membershipEnding(day(2024, time.January, 31))
	b := membershipEnding(day(2024, time.March, 31))
	c := membershipEnding(day(2024, time.February, 29))

	latest := LatestMembership([]Membership{a, b, c})
	require.NotNil(t, latest)
	assert.Equal(t, b.ID, latest.ID)

	end := MembershipEndDate([]Membership{a, b, c})
	require.NotNil(t, end)
	assert.Equal(t, day(2024, time.March, 31), *end)
}

func TestLatestMembershipTieBreakIsDeterministic(t *testing.T) {
	end := day(2024, time.March, 31)
	tied := []Membership{membershipEnding(end), membershipEnding(end), membershipEnding(end)}

	rapid.Check(t, func(t *rapid.T) {
		shuffled := append([]Membership(nil), tied...)
		seed := rapid.Int64().Draw(t, "seed")
		rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		latest := LatestMembership(shuffled)
		require.NotNil(t, latest)
		for _, m := range tied {
			assert.LessOrEqual(t, m.ID.String(), latest.ID.String())
		}
	})
}

func TestIsActiveBoundary(t *testing.T) {
	today := day(2024, time.June, 1)

	endsToday := []Membership{membershipEnding(today)}
	assert.True(t, IsActive(endsToday, today))

	endedYesterday := []Membership{membershipEnding(today.AddDate(0, 0, -1))}
	assert.False(t, IsActive(endedYesterday, today))

	endsTomorrow := []Membership{membershipEnding(today.AddDate(0, 0, 1))}
	assert.True(t, IsActive(endsTomorrow, today))
}

func TestIsActiveMatchesEndDateProperty(t *testing.T) {
	today := day(2024, time.June, 1)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		memberships := make([]Membership, 0, n)
		for i := 0; i < n; i++ {
			offset := rapid.IntRange(-400, 400).Draw(t, "offset")
			memberships = append(memberships, membershipEnding(today.AddDate(0, 0, offset)))
		}

		end := MembershipEndDate(memberships)
		if end == nil {
			assert.False(t, IsActive(memberships, today))
			assert.Empty(t, memberships)
		} else {
			assert.Equal(t, !end.Before(today), IsActive(memberships, today))
		}
	})
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name        string
		current     Status
		active      bool
		want        Status
		wantChanged bool
	}{
		{"inactive becomes active", StatusInactive, true, StatusActive, true},
		{"active becomes inactive", StatusActive, false, StatusInactive, true},
		{"active stays active", StatusActive, true, StatusActive, false},
		{"inactive stays inactive", StatusInactive, false, StatusInactive, false},
		{"deleted never leaves on active", StatusDeleted, true, StatusDeleted, false},
		{"deleted never leaves on inactive", StatusDeleted, false, StatusDeleted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := NextStatus(tc.current, tc.active)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantChanged, changed)
		})
	}
}

func TestDerivedStatus(t *testing.T) {
	got, changed := DerivedStatus(StatusInactive, false)
	assert.Equal(t, StatusInactive, got)
	assert.False(t, changed)

	got, changed = DerivedStatus(StatusInactive, true)
	assert.Equal(t, StatusActive, got)
	assert.True(t, changed)

	got, changed = DerivedStatus(StatusActive, false)
	assert.Equal(t, StatusInactive, got)
	assert.True(t, changed)
}

func TestParseStatusFilter(t *testing.T) {
	for _, valid := range []string{"", "active", "inactive", "deleted", "all"} {
		_, err := ParseStatusFilter(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParseStatusFilter("suspended")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("start_date", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 15), got)

	_, err = ParseDate("start_date", "15/01/2024")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "start_date")
}
