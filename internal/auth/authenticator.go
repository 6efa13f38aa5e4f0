package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"librarydesk/internal/apperr"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
	"librarydesk/internal/utils"
)

// Authenticator resolves a Principal from one of the three credential
// modes.  Lookups try the users table first and fall back to the
// members table, mirroring the dual-principal data model; the first
// match wins since neither PIN space carries a uniqueness constraint.
type Authenticator struct {
	Users    *repository.UserRepo
	Members  *repository.MemberRepo
	QRSecret string
}

func NewAuthenticator(users *repository.UserRepo, members *repository.MemberRepo, qrSecret string) *Authenticator {
	return &Authenticator{Users: users, Members: members, QRSecret: qrSecret}
}

// Authenticate verifies an identifier (username or email) and secret.
// Staff users check the secret against their bcrypt password hash.
// When no user row matches, the lookup falls back to a member by
// email and compares the secret against the member's PIN — the
// historical behavior of the desktop app, preserved so existing member
// cards keep working.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (*model.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, apperr.New(apperr.Validation, "identifier and password are required")
	}

	u, err := a.Users.GetByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		if !utils.VerifyPassword(u.PasswordHash, secret) {
			return nil, apperr.New(apperr.Auth, "Invalid password")
		}
		return a.principalForUser(ctx, u)
	case errors.Is(err, sql.ErrNoRows):
		// fall through to the member table
	default:
		return nil, apperr.Wrap(apperr.System, "user lookup failed", err)
	}

	m, err := a.Members.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.Auth, "Invalid password")
		}
		return nil, apperr.Wrap(apperr.System, "member lookup failed", err)
	}
	if !utils.VerifyPIN(m.PIN, secret) {
		return nil, apperr.New(apperr.Auth, "Invalid password")
	}
	return a.principalForMember(ctx, m)
}

// AuthenticateWithPIN verifies a bare PIN against users.pin_code and
// then members.pin.  First match wins.
func (a *Authenticator) AuthenticateWithPIN(ctx context.Context, pin string) (*model.Principal, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, apperr.New(apperr.Validation, "PIN is required")
	}

	u, err := a.Users.FindByPIN(ctx, pin)
	switch {
	case err == nil:
		return a.principalForUser(ctx, u)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, apperr.Wrap(apperr.System, "user lookup failed", err)
	}

	m, err := a.Members.FindByPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.Auth, "Invalid PIN code")
		}
		return nil, apperr.Wrap(apperr.System, "member lookup failed", err)
	}
	return a.principalForMember(ctx, m)
}

// AuthenticateWithQR verifies a scanned QR key against
// users.qr_auth_key and then members.qr_code.  When pin is non-empty
// it must also match the account's PIN.
func (a *Authenticator) AuthenticateWithQR(ctx context.Context, key, pin string) (*model.Principal, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.New(apperr.Validation, "QR code is required")
	}
	// Scanners deliver junk frequently; a signature check avoids two
	// table scans for payloads that cannot possibly be ours.
	if a.QRSecret != "" && !utils.ValidQRKey(a.QRSecret, key) {
		return nil, apperr.New(apperr.Auth, "Invalid QR code")
	}

	u, err := a.Users.FindByQRKey(ctx, key)
	switch {
	case err == nil:
		if pin != "" && !utils.VerifyPIN(u.PINCode, pin) {
			return nil, apperr.New(apperr.Auth, "Invalid PIN code")
		}
		return a.principalForUser(ctx, u)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, apperr.Wrap(apperr.System, "user lookup failed", err)
	}

	m, err := a.Members.FindByQRCode(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.Auth, "Invalid QR code")
		}
		return nil, apperr.Wrap(apperr.System, "member lookup failed", err)
	}
	if pin != "" && !utils.VerifyPIN(m.PIN, pin) {
		return nil, apperr.New(apperr.Auth, "Invalid PIN code")
	}
	return a.principalForMember(ctx, m)
}

// EnsureCredentials lazily generates a PIN and a signed QR key for a
// member missing either, storing and reflecting them on m.
func (a *Authenticator) EnsureCredentials(ctx context.Context, m *model.Member) error {
	newPIN, newQR := "", ""
	if m.PIN == "" {
		pin, err := utils.NewPIN(6)
		if err != nil {
			return apperr.Wrap(apperr.System, "generate PIN failed", err)
		}
		newPIN = pin
	}
	if m.QRCode == "" {
		qr, err := utils.NewQRKey(a.QRSecret, model.PrincipalMember, m.ID)
		if err != nil {
			return apperr.Wrap(apperr.System, "generate QR key failed", err)
		}
		newQR = qr
	}
	if newPIN == "" && newQR == "" {
		return nil
	}
	if err := a.Members.UpdateCredentials(ctx, m.ID, newPIN, newQR); err != nil {
		return apperr.Wrap(apperr.System, "store credentials failed", err)
	}
	if newPIN != "" {
		m.PIN = newPIN
	}
	if newQR != "" {
		m.QRCode = newQR
	}
	return nil
}

// principalForUser builds the caller-safe principal for a user row,
// loading the wrapped member profile when one is referenced.  Inactive
// accounts are rejected regardless of credential match.
func (a *Authenticator) principalForUser(ctx context.Context, u *model.User) (*model.Principal, error) {
	if !strings.EqualFold(u.Status, "Active") {
		return nil, apperr.New(apperr.Auth, "Account is inactive")
	}
	p := &model.Principal{
		Kind:     model.PrincipalStaff,
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}
	if u.MemberID != nil {
		m, err := a.Members.GetByID(ctx, *u.MemberID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.System, "member lookup failed", err)
		}
		if err == nil {
			p.Member = sanitizeMember(m)
			p.Name = m.Name
		}
	}
	return p, nil
}

// principalForMember builds the caller-safe principal for a member
// authenticated directly against the members table.
func (a *Authenticator) principalForMember(ctx context.Context, m *model.Member) (*model.Principal, error) {
	if m.Status != model.MemberStatusActive {
		return nil, apperr.New(apperr.Auth, "Account is inactive")
	}
	if err := a.EnsureCredentials(ctx, m); err != nil {
		return nil, err
	}
	return &model.Principal{
		Kind:   model.PrincipalMember,
		ID:     m.ID,
		Name:   m.Name,
		Email:  m.Email,
		Role:   model.RoleMember,
		Status: m.Status,
		Member: sanitizeMember(m),
	}, nil
}

// sanitizeMember copies a member with credentials stripped.  The json
// tags already hide PIN and QRCode, clearing them as well keeps a
// future tag change from leaking secrets.
func sanitizeMember(m *model.Member) *model.Member {
	cp := *m
	cp.PIN = ""
	cp.QRCode = ""
	return &cp
}
