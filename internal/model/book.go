package model

// Book represents a catalog entry in the `books` table.  A book row
// carries bibliographic data only; physical availability lives on the
// per-copy rows in `book_copies`.  The Status field is informational
// (e.g. "Active", "Archived") and is never consulted when deciding
// whether a title can be borrowed.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – book title.
//	Author      – author name.
//	ISBN        – unique ISBN.
//	Category    – free-form category label.
//	Status      – informational status string.
//	CoverURL    – optional URL of the cover image.
//	CoverColor  – optional fallback cover color for the UI.
//	Publisher   – publisher name.
//	Year        – publication year (zero when unknown).
//	Description – optional long-form description.
type Book struct {
	ID          int64  `json:"id"`          // books.id
	Title       string `json:"title"`       // books.title
	Author      string `json:"author"`      // books.author
	ISBN        string `json:"isbn"`        // books.isbn (unique)
	Category    string `json:"category"`    // books.category
	Status      string `json:"status"`      // books.status
	CoverURL    string `json:"cover_url"`   // books.cover_url
	CoverColor  string `json:"cover_color"` // books.cover_color
	Publisher   string `json:"publisher"`   // books.publisher
	Year        int    `json:"year"`        // books.year
	Description string `json:"description"` // books.description
}
