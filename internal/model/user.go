package model

// User roles.  A user either belongs to staff (admin, librarian) or
// wraps a Member row for the self-service portal.
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleMember    = "member"
)

// User represents an application login in the `users` table.  Staff
// users stand alone; portal users reference a Member through MemberID.
// Authentication falls back to the members table directly when no user
// row matches the supplied identifier.
//
// Fields:
//
//	ID           – primary key identifier.
//	Username     – unique login name.
//	Email        – email address.
//	PasswordHash – bcrypt hash of the password.
//	Role         – "admin", "librarian" or "member".
//	Status       – "Active" or "Inactive".
//	PINCode      – numeric quick-login PIN.
//	QRAuthKey    – signed QR credential.
//	MemberID     – wrapped member row, nil for staff.
type User struct {
	ID           int64  `json:"id"`        // users.id
	Username     string `json:"username"`  // users.username (unique)
	Email        string `json:"email"`     // users.email
	PasswordHash string `json:"-"`         // users.password
	Role         string `json:"role"`      // users.role
	Status       string `json:"status"`    // users.status
	PINCode      string `json:"-"`         // users.pin_code
	QRAuthKey    string `json:"-"`         // users.qr_auth_key
	MemberID     *int64 `json:"member_id"` // users.member_id (nullable)
}
