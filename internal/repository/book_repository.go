package repository

import (
	"context"
	"database/sql"
	"fmt"

	"librarydesk/internal/model"
)

// BookRepo provides CRUD operations over the books table.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

const bookColumns = "id, title, author, isbn, category, status, cover_url, cover_color, publisher, year, description"

func scanBook(row interface{ Scan(...interface{}) error }, b *model.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category, &b.Status,
		&b.CoverURL, &b.CoverColor, &b.Publisher, &b.Year, &b.Description)
}

// List returns all books ordered by title.
func (r *BookRepo) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookColumns+" FROM books ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := make([]model.Book, 0)
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetByID fetches one book.  sql.ErrNoRows is returned when the id is
// unknown.
func (r *BookRepo) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := scanBook(r.DB.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = ?", id), &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a book and populates its generated ID.  A duplicate
// ISBN surfaces as ErrDuplicate.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO books (title, author, isbn, category, status, cover_url, cover_color, publisher, year, description)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.Title, b.Author, b.ISBN, b.Category, defaultStr(b.Status, "Active"),
		b.CoverURL, b.CoverColor, b.Publisher, b.Year, b.Description)
	if err != nil {
		if isUniqueViolation(err, "books.isbn") {
			return fmt.Errorf("isbn %q: %w", b.ISBN, ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// Update rewrites every mutable column of a book.  sql.ErrNoRows is
// returned when the book does not exist.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, isbn=?, category=?, status=?, cover_url=?, cover_color=?, publisher=?, year=?, description=?
		 WHERE id=?`,
		b.Title, b.Author, b.ISBN, b.Category, b.Status,
		b.CoverURL, b.CoverColor, b.Publisher, b.Year, b.Description, b.ID)
	if err != nil {
		if isUniqueViolation(err, "books.isbn") {
			return fmt.Errorf("isbn %q: %w", b.ISBN, ErrDuplicate)
		}
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

// Delete removes a book row.  Copies referencing it keep the delete
// from succeeding through the foreign key, surfaced as ErrInUse.
func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("book %d: %w", id, ErrInUse)
		}
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

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
