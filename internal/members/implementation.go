// internal/members/implementation.go
package members

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"combatrix/internal/platform/logger"
)

// service implements the Service interface.
type service struct {
	store       Store
	now         func() time.Time
	log         *logger.Logger
	tracer      trace.Tracer
	rateLimiter *rate.Limiter
}

// NewService creates a new member ledger service. The clock is injected so
// every "today" decision is deterministic under test.
func NewService(store Store, now func() time.Time, log *logger.Logger) Service {
	return &service{
		store:       store,
		now:         now,
		log:         log,
		tracer:      otel.Tracer("combatrix/members"),
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

func (s *service) RegisterMember(ctx context.Context, in RegisterMemberInput) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded")
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if _, err := s.store.MemberByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
	}

	joined := DateOnly(s.now())
	if in.DateJoined != nil {
		joined = DateOnly(*in.DateJoined)
	}

	member := &Member{
		ID:                     uuid.New(),
		Name:                   in.Name,
		Email:                  in.Email,
		PhoneNumber:            in.PhoneNumber,
		EmergencyContactName:   in.EmergencyContactName,
		EmergencyContactNumber: in.EmergencyContactNumber,
		DateJoined:             joined,
		Status:                 StatusActive,
	}

	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.log.Info("member registered", "member_id", member.ID, "email", member.Email)
	return member, nil
}

func (s *service) GetMember(ctx context.Context, id uuid.UUID) (*MemberDetail, error) {
	member, err := s.store.MemberByID(ctx, id)
	if err != nil {
		return nil, err
	}

	memberships, err := s.store.MembershipsForMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	detail := &MemberDetail{
		MemberSummary: MemberSummary{
			Member:            *member,
			IsActive:          IsActive(memberships, s.now()),
			MembershipEndDate: MembershipEndDate(memberships),
			TotalRevenue:      decimal.Zero,
		},
		Memberships:    memberships,
		CombatrixTotal: decimal.Zero,
		FitshalaTotal:  decimal.Zero,
	}
	for _, ms := range memberships {
		detail.TotalRevenue = detail.TotalRevenue.Add(ms.Price)
		detail.CombatrixTotal = detail.CombatrixTotal.Add(ms.CombatrixShare)
		detail.FitshalaTotal = detail.FitshalaTotal.Add(ms.FitshalaShare)
	}
	return detail, nil
}

func (s *service) ListMembers(ctx context.Context, f Filter) ([]MemberSummary, error) {
	listed, err := s.store.ListMembers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	summaries := make([]MemberSummary, 0, len(listed))
	for _, member := range listed {
		memberships, err := s.store.MembershipsForMember(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load memberships for %s: %w", member.ID, err)
		}
		total := decimal.Zero
		for _, ms := range memberships {
			total = total.Add(ms.Price)
		}
		summaries = append(summaries, MemberSummary{
			Member:            member,
			IsActive:          IsActive(memberships, s.now()),
			MembershipEndDate: MembershipEndDate(memberships),
			TotalRevenue:      total,
		})
	}
	return summaries, nil
}

func (s *service) UpdateMember(ctx context.Context, id uuid.UUID, in RegisterMemberInput) (*Member, error) {
	member, err := s.store.MemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if in.Email != member.Email {
		if _, err := s.store.MemberByEmail(ctx, in.Email); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}
	}

	member.Name = in.Name
	member.Email = in.Email
	member.PhoneNumber = in.PhoneNumber
	member.EmergencyContactName = in.EmergencyContactName
	member.EmergencyContactNumber = in.EmergencyContactNumber
	if in.DateJoined != nil {
		member.DateJoined = DateOnly(*in.DateJoined)
	}

	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

func (s *service) SetMemberStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	member, err := s.store.MemberByID(ctx, id)
	if err != nil {
		return err
	}
	if member.Status == status {
		return nil
	}
	member.Status = status
	if err := s.store.UpdateMember(ctx, member); err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	s.log.Info("member status set", "member_id", id, "status", status)
	return nil
}

func (s *service) DeleteMember(ctx context.Context, id uuid.UUID, hard bool) error {
	if !hard {
		return s.SetMemberStatus(ctx, id, StatusDeleted)
	}
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	s.log.Info("member deleted", "member_id", id)
	return nil
}

func validateMembership(in MembershipInput) error {
	if DateOnly(in.StartDate).After(DateOnly(in.EndDate)) {
		return fmt.Errorf("%w: end_date cannot be before start_date", ErrInvalidInput)
	}
	if !in.CombatrixShare.Add(in.FitshalaShare).Equal(in.Price) {
		return fmt.Errorf("%w: combatrix_share and fitshala_share must sum to price", ErrInvalidInput)
	}
	return nil
}

func (s *service) CreateMembership(ctx context.Context, in MembershipInput) (*Membership, error) {
	if err := validateMembership(in); err != nil {
		return nil, err
	}
	if _, err := s.store.MemberByID(ctx, in.MemberID); err != nil {
		return nil, err
	}

	membership := &Membership{
		ID:             uuid.New(),
		MemberID:       in.MemberID,
		StartDate:      DateOnly(in.StartDate),
		EndDate:        DateOnly(in.EndDate),
		Price:          in.Price,
		CombatrixShare: in.CombatrixShare,
		FitshalaShare:  in.FitshalaShare,
		CreatedAt:      s.now(),
	}

	// The membership write and the status derivation it triggers commit as
	// one unit: a crash between them must never leave a membership saved
	// with its member's status unreconsidered.
	err := s.store.Transact(ctx, func(tx Store) error {
		if err := tx.CreateMembership(ctx, membership); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		return s.autoUpdateStatus(ctx, tx, membership.MemberID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("membership created", "membership_id", membership.ID, "member_id", membership.MemberID)
	return membership, nil
}

func (s *service) UpdateMembership(ctx context.Context, id uuid.UUID, in MembershipInput) (*Membership, error) {
	if err := validateMembership(in); err != nil {
		return nil, err
	}

	existing, err := s.store.MembershipByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MemberByID(ctx, in.MemberID); err != nil {
		return nil, err
	}

	updated := &Membership{
		ID:             existing.ID,
		MemberID:       in.MemberID,
		StartDate:      DateOnly(in.StartDate),
		EndDate:        DateOnly(in.EndDate),
		Price:          in.Price,
		CombatrixShare: in.CombatrixShare,
		FitshalaShare:  in.FitshalaShare,
		CreatedAt:      existing.CreatedAt,
	}

	err = s.store.Transact(ctx, func(tx Store) error {
		if err := tx.UpdateMembership(ctx, updated); err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}
		if err := s.autoUpdateStatus(ctx, tx, updated.MemberID); err != nil {
			return err
		}
		// Reassigning a membership also changes the previous owner's
		// reality.
		if existing.MemberID != updated.MemberID {
			return s.autoUpdateStatus(ctx, tx, existing.MemberID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// AutoUpdateStatus runs the automatic transition for one member in its own
// transaction.
func (s *service) AutoUpdateStatus(ctx context.Context, memberID uuid.UUID) error {
	return s.store.Transact(ctx, func(tx Store) error {
		return s.autoUpdateStatus(ctx, tx, memberID)
	})
}

// autoUpdateStatus recomputes the member's active state and applies the
// narrow transition rules, persisting only when the status changed.
func (s *service) autoUpdateStatus(ctx context.Context, store Store, memberID uuid.UUID) error {
	member, err := store.MemberByID(ctx, memberID)
	if err != nil {
		return err
	}

	memberships, err := store.MembershipsForMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to load memberships: %w", err)
	}

	next, changed := NextStatus(member.Status, IsActive(memberships, s.now()))
	if !changed {
		return nil
	}

	member.Status = next
	if err := store.UpdateMember(ctx, member); err != nil {
		return fmt.Errorf("failed to persist status change: %w", err)
	}
	s.log.Info("member status derived", "member_id", memberID, "status", next)
	return nil
}

func (s *service) Reconcile(ctx context.Context, dryRun bool) (*ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "members.reconcile",
		trace.WithAttributes(attribute.Bool("dry_run", dryRun)))
	defer span.End()

	listed, err := s.store.ListMembers(ctx, Filter{Status: FilterAll})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	result := &ReconcileResult{DryRun: dryRun, TotalProcessed: len(listed)}
	today := s.now()

	for _, member := range listed {
		if member.Status == StatusDeleted {
			result.SkippedDeleted++
			continue
		}

		memberships, err := s.store.MembershipsForMember(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load memberships for %s: %w", member.ID, err)
		}
		if len(memberships) == 0 {
			result.NoMembership++
		}

		correct, changed := DerivedStatus(member.Status, IsActive(memberships, today))
		if !changed {
			result.AlreadyCorrect++
			continue
		}

		if correct == StatusActive {
			result.UpdatedToActive++
		} else {
			result.UpdatedToInactive++
		}
		result.Changes = append(result.Changes, StatusChange{
			MemberID: member.ID,
			Name:     member.Name,
			From:     member.Status,
			To:       correct,
			EndDate:  MembershipEndDate(memberships),
		})

		if dryRun {
			continue
		}

		// Each member commits independently: an interrupted pass leaves
		// processed members correct and is safe to re-run.
		member.Status = correct
		if err := s.store.UpdateMember(ctx, &member); err != nil {
			return nil, fmt.Errorf("failed to persist status for %s: %w", member.ID, err)
		}
		s.log.Info("member status reconciled", "member_id", member.ID, "status", correct)
	}

	span.SetAttributes(
		attribute.Int("members.processed", result.TotalProcessed),
		attribute.Int("members.updated", result.Updated()),
	)
	return result, nil
}

func (s *service) StatusBreakdown(ctx context.Context) (map[Status]int, error) {
	return s.store.CountMembersByStatus(ctx)
}
