// internal/members/memstore.go
package members

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors the ordering and filter semantics of the Postgres store. Transact
// is not rollback-capable; callers that need crash-safe atomicity use the
// Postgres store.
type MemStore struct {
	mu          sync.RWMutex
	members     map[uuid.UUID]Member
	memberships map[uuid.UUID]Membership
}

func NewMemStore() *MemStore {
	return &MemStore{
		members:     make(map[uuid.UUID]Member),
		memberships: make(map[uuid.UUID]Membership),
	}
}

func (s *MemStore) CreateMember(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.Email == m.Email {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, m.Email)
		}
	}
	s.members[m.ID] = *m
	return nil
}

func (s *MemStore) MemberByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	return &m, nil
}

func (s *MemStore) MemberByEmail(ctx context.Context, email string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.Email == email {
			m := m
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: member %s", ErrNotFound, email)
}

func (s *MemStore) ListMembers(ctx context.Context, f Filter) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Member{}
	for _, m := range s.members {
		if !matchStatus(f.Status, m.Status) || !inRange(m.DateJoined, f.Start, f.End) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := DateOnly(out[i].DateJoined), DateOnly(out[j].DateJoined)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemStore) UpdateMember(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return fmt.Errorf("%w: member %s", ErrNotFound, m.ID)
	}
	s.members[m.ID] = *m
	return nil
}

func (s *MemStore) DeleteMember(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	delete(s.members, id)
	for msID, ms := range s.memberships {
		if ms.MemberID == id {
			delete(s.memberships, msID)
		}
	}
	return nil
}

func (s *MemStore) CountMembersByStatus(ctx context.Context) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int)
	for _, m := range s.members {
		counts[m.Status]++
	}
	return counts, nil
}

func (s *MemStore) CreateMembership(ctx context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.MemberID]; !ok {
		return fmt.Errorf("%w: member %s", ErrNotFound, m.MemberID)
	}
	s.memberships[m.ID] = *m
	return nil
}

func (s *MemStore) UpdateMembership(ctx context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.memberships[m.ID]
	if !ok {
		return fmt.Errorf("%w: membership %s", ErrNotFound, m.ID)
	}
	updated := *m
	updated.CreatedAt = existing.CreatedAt // immutable
	s.memberships[m.ID] = updated
	return nil
}

func (s *MemStore) MembershipByID(ctx context.Context, id uuid.UUID) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	if !ok {
		return nil, fmt.Errorf("%w: membership %s", ErrNotFound, id)
	}
	return &m, nil
}

func (s *MemStore) MembershipsForMember(ctx context.Context, memberID uuid.UUID) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Membership{}
	for _, m := range s.memberships {
		if m.MemberID == memberID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := DateOnly(out[i].EndDate), DateOnly(out[j].EndDate)
		if !ei.Equal(ej) {
			return ei.After(ej)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (s *MemStore) ListMemberships(ctx context.Context, f Filter) ([]MembershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []MembershipRecord{}
	for _, ms := range s.memberships {
		owner, ok := s.members[ms.MemberID]
		if !ok {
			continue
		}
		if !matchStatus(f.Status, owner.Status) || !inRange(ms.StartDate, f.Start, f.End) {
			continue
		}
		out = append(out, record(ms, owner))
	}
	sortRecordsByStart(out)
	return out, nil
}

func (s *MemStore) ExpiringBetween(ctx context.Context, from, to time.Time) ([]MembershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []MembershipRecord{}
	for _, ms := range s.memberships {
		owner, ok := s.members[ms.MemberID]
		if !ok {
			continue
		}
		if inRange(ms.EndDate, &from, &to) {
			out = append(out, record(ms, owner))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := DateOnly(out[i].EndDate), DateOnly(out[j].EndDate)
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemStore) TotalShares(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, combatrix, fitshala := decimal.Zero, decimal.Zero, decimal.Zero
	for _, m := range s.memberships {
		price = price.Add(m.Price)
		combatrix = combatrix.Add(m.CombatrixShare)
		fitshala = fitshala.Add(m.FitshalaShare)
	}
	return price, combatrix, fitshala, nil
}

func (s *MemStore) Transact(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func matchStatus(f StatusFilter, status Status) bool {
	return f == "" || f == FilterAll || Status(f) == status
}

func inRange(t time.Time, start, end *time.Time) bool {
	d := DateOnly(t)
	if start != nil && d.Before(DateOnly(*start)) {
		return false
	}
	if end != nil && d.After(DateOnly(*end)) {
		return false
	}
	return true
}

func record(ms Membership, owner Member) MembershipRecord {
	return MembershipRecord{
		Membership:   ms,
		MemberName:   owner.Name,
		MemberEmail:  owner.Email,
		MemberStatus: owner.Status,
		MemberJoined: owner.DateJoined,
	}
}

func sortRecordsByStart(records []MembershipRecord) {
	sort.Slice(records, func(i, j int) bool {
		si, sj := DateOnly(records[i].StartDate), DateOnly(records[j].StartDate)
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
}
