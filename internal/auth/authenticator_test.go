package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"librarydesk/internal/apperr"
	"librarydesk/internal/database"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
	"librarydesk/internal/utils"
)

const testQRSecret = "unit-test-secret"

func newTestAuthenticator(t *testing.T) (*Authenticator, *repository.UserRepo, *repository.MemberRepo) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db, false))

	users := repository.NewUserRepo(db)
	members := repository.NewMemberRepo(db)
	return NewAuthenticator(users, members, testQRSecret), users, members
}

func seedStaff(t *testing.T, users *repository.UserRepo, username, password, pin string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 10)
	require.NoError(t, err)
	u := &model.User{Username: username, Email: username + "@lib.test", PasswordHash: hash, Role: model.RoleLibrarian, Status: "Active", PINCode: pin}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedMember(t *testing.T, members *repository.MemberRepo, name, email, pin, status string) *model.Member {
	t.Helper()
	m := &model.Member{Name: name, Email: email, Status: status, PIN: pin}
	require.NoError(t, members.Create(context.Background(), m))
	return m
}

func TestAuthenticateStaffPassword(t *testing.T) {
	a, users, _ := newTestAuthenticator(t)
	seedStaff(t, users, "desk", "s3cret", "")

	p, err := a.Authenticate(context.Background(), "desk", "s3cret")
	require.NoError(t, err)
	require.Equal(t, model.PrincipalStaff, p.Kind)
	require.Equal(t, model.RoleLibrarian, p.Role)

	_, err = a.Authenticate(context.Background(), "desk", "wrong")
	require.Error(t, err)
	require.Equal(t, apperr.Auth, apperr.KindOf(err))
	require.Equal(t, "Invalid password", apperr.MessageOf(err))
}

func TestAuthenticateMemberFallback(t *testing.T) {
	a, _, members := newTestAuthenticator(t)
	seedMember(t, members, "Pat", "pat@lib.test", "445566", model.MemberStatusActive)

	// No user row matches, so the email falls through to the members
	// table and the secret is compared against the PIN.
	p, err := a.Authenticate(context.Background(), "pat@lib.test", "445566")
	require.NoError(t, err)
	require.Equal(t, model.PrincipalMember, p.Kind)
	require.NotNil(t, p.Member)
	require.Empty(t, p.Member.PIN, "principal must not carry secrets")
}

func TestAuthenticateWithPINNoMatch(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	_, err := a.AuthenticateWithPIN(context.Background(), "000000")
	require.Error(t, err)
	require.Equal(t, apperr.Auth, apperr.KindOf(err))
	require.Equal(t, "Invalid PIN code", apperr.MessageOf(err))
}

func TestAuthenticateWithPINOrder(t *testing.T) {
	a, users, members := newTestAuthenticator(t)
	// Same PIN in both tables: the user row wins.
	seedStaff(t, users, "front", "pw", "121212")
	seedMember(t, members, "Sam", "sam@lib.test", "121212", model.MemberStatusActive)

	p, err := a.AuthenticateWithPIN(context.Background(), "121212")
	require.NoError(t, err)
	require.Equal(t, model.PrincipalStaff, p.Kind)
}

func TestAuthenticateInactiveMember(t *testing.T) {
	a, _, members := newTestAuthenticator(t)
	seedMember(t, members, "Lee", "lee@lib.test", "778899", model.MemberStatusInactive)

	_, err := a.AuthenticateWithPIN(context.Background(), "778899")
	require.Error(t, err)
	require.Equal(t, apperr.Auth, apperr.KindOf(err))
	require.Equal(t, "Account is inactive", apperr.MessageOf(err))
}

func TestAuthenticateWithQR(t *testing.T) {
	a, _, members := newTestAuthenticator(t)
	m := seedMember(t, members, "Kim", "kim@lib.test", "334455", model.MemberStatusActive)

	key, err := utils.NewQRKey(testQRSecret, model.PrincipalMember, m.ID)
	require.NoError(t, err)
	require.NoError(t, members.UpdateCredentials(context.Background(), m.ID, "", key))

	p, err := a.AuthenticateWithQR(context.Background(), key, "")
	require.NoError(t, err)
	require.Equal(t, m.ID, p.ID)

	// Supplying a PIN cross-checks it.
	_, err = a.AuthenticateWithQR(context.Background(), key, "999999")
	require.Error(t, err)
	require.Equal(t, "Invalid PIN code", apperr.MessageOf(err))

	// Garbage payloads fail the signature check before any lookup.
	_, err = a.AuthenticateWithQR(context.Background(), "garbled", "")
	require.Error(t, err)
	require.Equal(t, apperr.Auth, apperr.KindOf(err))
}

func TestEnsureCredentialsLazyGeneration(t *testing.T) {
	a, _, members := newTestAuthenticator(t)
	m := seedMember(t, members, "Ana", "ana@lib.test", "", model.MemberStatusActive)
	require.Empty(t, m.PIN)

	require.NoError(t, a.EnsureCredentials(context.Background(), m))
	require.Len(t, m.PIN, 6)
	require.True(t, utils.ValidQRKey(testQRSecret, m.QRCode))

	// Stored, not just reflected.
	stored, err := members.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, m.PIN, stored.PIN)
	require.Equal(t, m.QRCode, stored.QRCode)
}
