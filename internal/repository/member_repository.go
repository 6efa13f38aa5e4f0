package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"librarydesk/internal/model"
)

// MemberRepo provides CRUD and credential lookups over the members
// table.  PIN lookups deliberately take the first matching row: the
// pin column carries no uniqueness constraint, collisions are treated
// as operator error.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

const memberColumns = "id, name, email, phone, membership_type, status, pin, qr_code, address, dob, gender"

func scanMember(row interface{ Scan(...interface{}) error }, m *model.Member) error {
	return row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.MembershipType, &m.Status,
		&m.PIN, &m.QRCode, &m.Address, &m.DateOfBirth, &m.Gender)
}

// List returns all members ordered by name.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]model.Member, 0)
	for rows.Next() {
		var m model.Member
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetByID fetches one member; sql.ErrNoRows when absent.
func (r *MemberRepo) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id), &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m model.Member
	err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE lower(email) = ? LIMIT 1", email), &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPIN returns the first member whose pin matches.
func (r *MemberRepo) FindByPIN(ctx context.Context, pin string) (*model.Member, error) {
	var m model.Member
	err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE pin = ? AND pin != '' LIMIT 1", pin), &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByQRCode returns the member holding the exact QR credential.
func (r *MemberRepo) FindByQRCode(ctx context.Context, key string) (*model.Member, error) {
	var m model.Member
	err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE qr_code = ? AND qr_code != '' LIMIT 1", key), &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a member and populates its generated ID.  A duplicate
// email surfaces as ErrDuplicate.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO members (name, email, phone, membership_type, status, pin, qr_code, address, dob, gender)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.Name, m.Email, m.Phone, defaultStr(m.MembershipType, "Standard"),
		defaultStr(m.Status, model.MemberStatusActive), m.PIN, m.QRCode, m.Address, m.DateOfBirth, m.Gender)
	if err != nil {
		if isUniqueViolation(err, "members.email") {
			return fmt.Errorf("email %q: %w", m.Email, ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// Update rewrites a member's profile columns.  Credentials are updated
// separately through UpdateCredentials so a profile edit can never
// wipe a PIN.
func (r *MemberRepo) Update(ctx context.Context, m *model.Member) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE members SET name=?, email=?, phone=?, membership_type=?, status=?, address=?, dob=?, gender=? WHERE id=?`,
		m.Name, m.Email, m.Phone, m.MembershipType, m.Status, m.Address, m.DateOfBirth, m.Gender, m.ID)
	if err != nil {
		if isUniqueViolation(err, "members.email") {
			return fmt.Errorf("email %q: %w", m.Email, ErrDuplicate)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateCredentials stores a member's PIN and QR credential.  Empty
// arguments keep the stored value.
func (r *MemberRepo) UpdateCredentials(ctx context.Context, id int64, pin, qrCode string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE members SET
			pin = CASE WHEN ? != '' THEN ? ELSE pin END,
			qr_code = CASE WHEN ? != '' THEN ? ELSE qr_code END
		 WHERE id = ?`,
		pin, pin, qrCode, qrCode, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a member; sql.ErrNoRows when absent.  Loans keep the
// delete from succeeding through the foreign key, surfaced as
// ErrInUse.
func (r *MemberRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("member %d: %w", id, ErrInUse)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
