package model

// Copy statuses.  A copy is "Checked Out" exactly when an open loan
// (return_date IS NULL) references it; there is no separate counter.
const (
	CopyStatusAvailable  = "Available"
	CopyStatusCheckedOut = "Checked Out"
)

// Copy conditions considered damaged for availability summaries.
const (
	CopyConditionGood = "Good"
	CopyConditionPoor = "Poor"
)

// BookCopy represents one lendable physical instance of a Book in the
// `book_copies` table.  The copy, not the book, is the unit of lending.
//
// Fields:
//
//	ID           – primary key identifier.
//	BookID       – catalog entry this copy belongs to.
//	ShelfID      – shelf currently holding the copy (nil when unshelved).
//	Barcode      – unique scannable barcode.
//	LocationCode – human-readable location, section prefix + sequence
//	               suffix (e.g. "A-012").
//	Status       – "Available" or "Checked Out".
//	Condition    – physical condition ("Good", "Fair", "Poor", ...).
type BookCopy struct {
	ID           int64  `json:"id"`            // book_copies.id
	BookID       int64  `json:"book_id"`       // book_copies.book_id
	ShelfID      *int64 `json:"shelf_id"`      // book_copies.shelf_id (nullable)
	Barcode      string `json:"barcode"`       // book_copies.barcode (unique)
	LocationCode string `json:"location_code"` // book_copies.location_code
	Status       string `json:"status"`        // book_copies.status
	Condition    string `json:"condition"`     // book_copies.condition
}

// Availability summarizes the copies of a single book.  Counts are
// derived from copy rows on every call; available and damaged overlap
// when a damaged copy is still on the shelf.
type Availability struct {
	BookID           int64          `json:"book_id"`
	TotalCopies      int            `json:"total_copies"`
	AvailableCopies  int            `json:"available_copies"`
	CheckedOutCopies int            `json:"checked_out_copies"`
	DamagedCopies    int            `json:"damaged_copies"`
	Locations        []CopyLocation `json:"locations"`
}

// CopyLocation names the shelf position of one available copy.
type CopyLocation struct {
	CopyID       int64  `json:"copy_id"`
	Barcode      string `json:"barcode"`
	LocationCode string `json:"location_code"`
	ShelfName    string `json:"shelf_name,omitempty"`
}
