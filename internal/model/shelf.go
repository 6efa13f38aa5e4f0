package model

// Shelf represents a physical shelving unit in the `shelves` table.
// Copies reference a shelf through book_copies.shelf_id; the Section
// letter is the prefix used when computing a copy's location code.
type Shelf struct {
	ID       int64  `json:"id"`       // shelves.id
	Name     string `json:"name"`     // shelves.name
	Location string `json:"location"` // shelves.location
	Section  string `json:"section"`  // shelves.section
	Code     string `json:"code"`     // shelves.code
	Capacity int    `json:"capacity"` // shelves.capacity
}
