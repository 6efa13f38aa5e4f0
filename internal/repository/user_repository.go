package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"librarydesk/internal/model"
)

// UserRepo provides lookups over the users table.  A user either
// represents staff or wraps a member row for the self-service portal.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password, role, status, pin_code, qr_auth_key, member_id"

func scanUser(row interface{ Scan(...interface{}) error }, u *model.User) error {
	var memberID sql.NullInt64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Status, &u.PINCode, &u.QRAuthKey, &memberID); err != nil {
		return err
	}
	if memberID.Valid {
		v := memberID.Int64
		u.MemberID = &v
	}
	return nil
}

// GetByIdentifier fetches a user whose username or email matches the
// normalized identifier.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(username) = ? OR lower(email) = ? LIMIT 1",
		identifier, identifier), &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id), &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByPIN returns the first user whose pin_code matches.
func (r *UserRepo) FindByPIN(ctx context.Context, pin string) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE pin_code = ? AND pin_code != '' LIMIT 1", pin), &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByQRKey returns the user holding the exact QR credential.
func (r *UserRepo) FindByQRKey(ctx context.Context, key string) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE qr_auth_key = ? AND qr_auth_key != '' LIMIT 1", key), &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and populates its generated ID.  A duplicate
// username surfaces as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password, role, status, pin_code, qr_auth_key, member_id)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, defaultStr(u.Role, model.RoleLibrarian),
		defaultStr(u.Status, "Active"), u.PINCode, u.QRAuthKey, u.MemberID)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return fmt.Errorf("username %q: %w", u.Username, ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}
