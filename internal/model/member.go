package model

// Member account statuses.
const (
	MemberStatusActive   = "Active"
	MemberStatusInactive = "Inactive"
)

// Member represents a library patron in the `members` table.  PIN and
// QRCode are credentials used by the self-service flows; both are
// generated lazily the first time a member authenticates without them.
// Uniqueness of the PIN is assumed operationally but not enforced by a
// schema constraint, so lookups take the first matching row.
//
// Fields:
//
//	ID             – primary key identifier.
//	Name           – full name.
//	Email          – unique email address.
//	Phone          – contact phone number.
//	MembershipType – plan label (e.g. "Standard", "Student").
//	Status         – "Active" or "Inactive"; inactive members cannot
//	                 authenticate or borrow.
//	PIN            – numeric self-service PIN.
//	QRCode         – signed QR credential for card scans.
//	Address        – postal address.
//	DateOfBirth    – ISO date string, may be empty.
//	Gender         – free-form, may be empty.
type Member struct {
	ID             int64  `json:"id"`              // members.id
	Name           string `json:"name"`            // members.name
	Email          string `json:"email"`           // members.email (unique)
	Phone          string `json:"phone"`           // members.phone
	MembershipType string `json:"membership_type"` // members.membership_type
	Status         string `json:"status"`          // members.status
	PIN            string `json:"-"`               // members.pin (never serialized)
	QRCode         string `json:"-"`               // members.qr_code (never serialized)
	Address        string `json:"address"`         // members.address
	DateOfBirth    string `json:"dob"`             // members.dob
	Gender         string `json:"gender"`          // members.gender
}
