// internal/members/postgres.go
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewPostgresStore creates a store bound to the given database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, ext: db}
}

// Migrate creates the schema if it does not exist. Deleting a member
// cascades to its memberships at the database level.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS members (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone_number TEXT NOT NULL DEFAULT '',
			emergency_contact_name TEXT NOT NULL DEFAULT '',
			emergency_contact_number TEXT NOT NULL DEFAULT '',
			date_joined DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		);
		CREATE TABLE IF NOT EXISTS memberships (
			id UUID PRIMARY KEY,
			member_id UUID NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			price NUMERIC(10,2) NOT NULL,
			combatrix_share NUMERIC(10,2) NOT NULL,
			fitshala_share NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT memberships_dates CHECK (start_date <= end_date)
		);
		CREATE INDEX IF NOT EXISTS idx_memberships_member ON memberships (member_id, end_date DESC);
		CREATE INDEX IF NOT EXISTS idx_memberships_start ON memberships (start_date);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) CreateMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (id, name, email, phone_number, emergency_contact_name, emergency_contact_number, date_joined, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.ext.ExecContext(ctx, query,
		m.ID, m.Name, m.Email, m.PhoneNumber, m.EmergencyContactName, m.EmergencyContactNumber, m.DateJoined, m.Status)
	return err
}

func (s *PostgresStore) MemberByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	member := &Member{}
	err := sqlx.GetContext(ctx, s.ext, member, `SELECT * FROM members WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *PostgresStore) MemberByEmail(ctx context.Context, email string) (*Member, error) {
	member := &Member{}
	err := sqlx.GetContext(ctx, s.ext, member, `SELECT * FROM members WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, f Filter) ([]Member, error) {
	query := `SELECT * FROM members WHERE 1=1`
	var args []interface{}
	if f.Status != "" && f.Status != FilterAll {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Start != nil {
		args = append(args, DateOnly(*f.Start))
		query += fmt.Sprintf(" AND date_joined >= $%d", len(args))
	}
	if f.End != nil {
		args = append(args, DateOnly(*f.End))
		query += fmt.Sprintf(" AND date_joined <= $%d", len(args))
	}
	query += ` ORDER BY date_joined, name`

	members := []Member{}
	if err := sqlx.SelectContext(ctx, s.ext, &members, query, args...); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *PostgresStore) UpdateMember(ctx context.Context, m *Member) error {
	query := `
		UPDATE members
		SET name = $1, email = $2, phone_number = $3, emergency_contact_name = $4, emergency_contact_number = $5, date_joined = $6, status = $7
		WHERE id = $8
	`
	res, err := s.ext.ExecContext(ctx, query,
		m.Name, m.Email, m.PhoneNumber, m.EmergencyContactName, m.EmergencyContactNumber, m.DateJoined, m.Status, m.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: member %s", ErrNotFound, m.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteMember(ctx context.Context, id uuid.UUID) error {
	res, err := s.ext.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) CountMembersByStatus(ctx context.Context) (map[Status]int, error) {
	rows := []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM members GROUP BY status`
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query); err != nil {
		return nil, err
	}
	counts := make(map[Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *PostgresStore) CreateMembership(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO memberships (id, member_id, start_date, end_date, price, combatrix_share, fitshala_share, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.ext.ExecContext(ctx, query,
		m.ID, m.MemberID, m.StartDate, m.EndDate, m.Price, m.CombatrixShare, m.FitshalaShare, m.CreatedAt)
	return err
}

func (s *PostgresStore) UpdateMembership(ctx context.Context, m *Membership) error {
	// created_at is immutable and deliberately not in the SET list.
	query := `
		UPDATE memberships
		SET member_id = $1, start_date = $2, end_date = $3, price = $4, combatrix_share = $5, fitshala_share = $6
		WHERE id = $7
	`
	res, err := s.ext.ExecContext(ctx, query,
		m.MemberID, m.StartDate, m.EndDate, m.Price, m.CombatrixShare, m.FitshalaShare, m.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: membership %s", ErrNotFound, m.ID)
	}
	return nil
}

func (s *PostgresStore) MembershipByID(ctx context.Context, id uuid.UUID) (*Membership, error) {
	membership := &Membership{}
	err := sqlx.GetContext(ctx, s.ext, membership, `SELECT * FROM memberships WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: membership %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *PostgresStore) MembershipsForMember(ctx context.Context, memberID uuid.UUID) ([]Membership, error) {
	query := `
		SELECT * FROM memberships
		WHERE member_id = $1
		ORDER BY end_date DESC, id DESC
	`
	memberships := []Membership{}
	if err := sqlx.SelectContext(ctx, s.ext, &memberships, query, memberID); err != nil {
		return nil, err
	}
	return memberships, nil
}

const membershipRecordColumns = `
	ms.id, ms.member_id, ms.start_date, ms.end_date, ms.price, ms.combatrix_share, ms.fitshala_share, ms.created_at,
	m.name AS member_name, m.email AS member_email, m.status AS member_status, m.date_joined AS member_joined
`

func (s *PostgresStore) ListMemberships(ctx context.Context, f Filter) ([]MembershipRecord, error) {
	query := `SELECT ` + membershipRecordColumns + `
		FROM memberships ms
		JOIN members m ON m.id = ms.member_id
		WHERE 1=1`
	var args []interface{}
	if f.Status != "" && f.Status != FilterAll {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND m.status = $%d", len(args))
	}
	if f.Start != nil {
		args = append(args, DateOnly(*f.Start))
		query += fmt.Sprintf(" AND ms.start_date >= $%d", len(args))
	}
	if f.End != nil {
		args = append(args, DateOnly(*f.End))
		query += fmt.Sprintf(" AND ms.start_date <= $%d", len(args))
	}
	query += ` ORDER BY ms.start_date, ms.created_at, ms.id`

	records := []MembershipRecord{}
	if err := sqlx.SelectContext(ctx, s.ext, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) ExpiringBetween(ctx context.Context, from, to time.Time) ([]MembershipRecord, error) {
	query := `SELECT ` + membershipRecordColumns + `
		FROM memberships ms
		JOIN members m ON m.id = ms.member_id
		WHERE ms.end_date >= $1 AND ms.end_date <= $2
		ORDER BY ms.end_date, ms.id
	`
	records := []MembershipRecord{}
	if err := sqlx.SelectContext(ctx, s.ext, &records, query, DateOnly(from), DateOnly(to)); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) TotalShares(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	row := struct {
		Price     decimal.Decimal `db:"price"`
		Combatrix decimal.Decimal `db:"combatrix"`
		Fitshala  decimal.Decimal `db:"fitshala"`
	}{}
	query := `
		SELECT COALESCE(SUM(price), 0) AS price,
		       COALESCE(SUM(combatrix_share), 0) AS combatrix,
		       COALESCE(SUM(fitshala_share), 0) AS fitshala
		FROM memberships
	`
	if err := sqlx.GetContext(ctx, s.ext, &row, query); err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return row.Price, row.Combatrix, row.Fitshala, nil
}

// Transact runs fn against a transaction-backed view of the store.
func (s *PostgresStore) Transact(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&PostgresStore{db: s.db, ext: tx}); err != nil {
		return err
	}
	return tx.Commit()
}
