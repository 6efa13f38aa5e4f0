// Package queue carries loan receipt events over RabbitMQ to the
// background receipt printer.
package queue

// Receipt event kinds.
const (
	ReceiptKindBorrow = "borrow"
	ReceiptKindReturn = "return"
)

// ReceiptItem is one lent copy on a receipt.
type ReceiptItem struct {
	Barcode string `json:"barcode"`
	Title   string `json:"title"`
}

// LoanReceiptEvent is published after a borrow or return commits.  It
// carries everything the printer needs so the consumer never queries
// the primary database.
type LoanReceiptEvent struct {
	Kind          string        `json:"kind"` // "borrow" or "return"
	TransactionID string        `json:"transaction_id"`
	MemberID      int64         `json:"member_id"`
	MemberName    string        `json:"member_name"`
	Items         []ReceiptItem `json:"items"`
	CheckoutDate  string        `json:"checkout_date,omitempty"`
	DueDate       string        `json:"due_date,omitempty"`
	ReturnDate    string        `json:"return_date,omitempty"`
	IssuedAt      string        `json:"issued_at"`
}
