package model

// Principal kinds.
const (
	PrincipalStaff  = "staff"
	PrincipalMember = "member"
)

// Principal is the authenticated identity produced by a successful
// login, resolved once at authentication time instead of re-deriving
// "is this a member-shaped id" at each call site.  It is safe to hand
// to callers: no password hash, PIN or QR key is ever copied in.
//
// Kind is PrincipalStaff when the identity came from the users table
// and PrincipalMember when it came from the members table directly.
// Member carries the nested member profile when the principal wraps or
// is a member.
type Principal struct {
	Kind     string  `json:"kind"`
	ID       int64   `json:"id"`
	Username string  `json:"username,omitempty"`
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	Status   string  `json:"status"`
	Member   *Member `json:"member,omitempty"`
}
