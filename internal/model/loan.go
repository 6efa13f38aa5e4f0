package model

// Loan statuses.  The state machine is Borrowed -> Returned and
// Returned is terminal.  "Overdue" is never stored; it is derived from
// status and due date at query time.
const (
	LoanStatusBorrowed = "Borrowed"
	LoanStatusReturned = "Returned"
)

// Loan represents a single copy lent to a member in the `loans` table.
// Loans created by one borrow call share a non-empty TransactionID and
// form a transaction group that is returned together by default.
// Dates are stored as ISO "YYYY-MM-DD" strings, which compare
// correctly as text.
//
// Fields:
//
//	ID            – primary key identifier.
//	BookCopyID    – copy that was lent.
//	MemberID      – borrowing member.
//	CheckoutDate  – date the loan started.
//	DueDate       – date the loan is due; never before CheckoutDate.
//	ReturnDate    – date of return, nil while the loan is open.  Set at
//	                most once; once set the status is immutably
//	                "Returned".
//	Status        – "Borrowed" or "Returned".
//	Rating        – optional 1-5 rating attached at return time.
//	Review        – optional free-form review attached at return time.
//	TransactionID – borrow-event group id, empty for legacy rows.
type Loan struct {
	ID            int64   `json:"id"`             // loans.id
	BookCopyID    int64   `json:"book_copy_id"`   // loans.book_copy_id
	MemberID      int64   `json:"member_id"`      // loans.member_id
	CheckoutDate  string  `json:"checkout_date"`  // loans.checkout_date
	DueDate       string  `json:"due_date"`       // loans.due_date
	ReturnDate    *string `json:"return_date"`    // loans.return_date (nullable)
	Status        string  `json:"status"`         // loans.status
	Rating        *int    `json:"rating"`         // loans.rating (nullable)
	Review        *string `json:"review"`         // loans.review (nullable)
	TransactionID string  `json:"transaction_id"` // loans.transaction_id
}
