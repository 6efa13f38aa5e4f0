package repository

import (
	"context"
	"database/sql"

	"librarydesk/internal/model"
)

// ShelfRepo provides CRUD operations over the shelves table.
type ShelfRepo struct{ DB *sql.DB }

func NewShelfRepo(db *sql.DB) *ShelfRepo { return &ShelfRepo{DB: db} }

const shelfColumns = "id, name, location, section, code, capacity"

// List returns all shelves ordered by section then name.
func (r *ShelfRepo) List(ctx context.Context) ([]model.Shelf, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+shelfColumns+" FROM shelves ORDER BY section, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shelves := make([]model.Shelf, 0)
	for rows.Next() {
		var s model.Shelf
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.Section, &s.Code, &s.Capacity); err != nil {
			return nil, err
		}
		shelves = append(shelves, s)
	}
	return shelves, rows.Err()
}

// GetByID fetches one shelf; sql.ErrNoRows when absent.
func (r *ShelfRepo) GetByID(ctx context.Context, id int64) (*model.Shelf, error) {
	var s model.Shelf
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+shelfColumns+" FROM shelves WHERE id = ?", id).
		Scan(&s.ID, &s.Name, &s.Location, &s.Section, &s.Code, &s.Capacity)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a shelf and populates its generated ID.
func (r *ShelfRepo) Create(ctx context.Context, s *model.Shelf) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO shelves (name, location, section, code, capacity) VALUES (?,?,?,?,?)",
		s.Name, s.Location, defaultStr(s.Section, "A"), s.Code, s.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// Update rewrites a shelf; sql.ErrNoRows when absent.
func (r *ShelfRepo) Update(ctx context.Context, s *model.Shelf) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE shelves SET name=?, location=?, section=?, code=?, capacity=? WHERE id=?",
		s.Name, s.Location, s.Section, s.Code, s.Capacity, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a shelf; sql.ErrNoRows when absent.  Copies on the
// shelf keep their rows, the foreign key is nullable.
func (r *ShelfRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE book_copies SET shelf_id = NULL WHERE shelf_id = ?", id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM shelves WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
