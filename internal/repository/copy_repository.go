package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"librarydesk/internal/model"
)

// CopyRepo provides CRUD operations over the book_copies table plus
// the bulk status helpers the loan engine runs inside transactions.
// Copy status is the single source of truth for availability; no
// cached counter exists anywhere, so every summary is recomputed from
// these rows.
type CopyRepo struct{ DB *sql.DB }

func NewCopyRepo(db *sql.DB) *CopyRepo { return &CopyRepo{DB: db} }

const copyColumns = "id, book_id, shelf_id, barcode, location_code, status, condition"

func scanCopy(row interface{ Scan(...interface{}) error }, c *model.BookCopy) error {
	var shelfID sql.NullInt64
	if err := row.Scan(&c.ID, &c.BookID, &shelfID, &c.Barcode, &c.LocationCode, &c.Status, &c.Condition); err != nil {
		return err
	}
	if shelfID.Valid {
		v := shelfID.Int64
		c.ShelfID = &v
	}
	return nil
}

// ListByBook returns every copy of one book ordered by barcode.
func (r *CopyRepo) ListByBook(ctx context.Context, bookID int64) ([]model.BookCopy, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+copyColumns+" FROM book_copies WHERE book_id = ? ORDER BY barcode", bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	copies := make([]model.BookCopy, 0)
	for rows.Next() {
		var c model.BookCopy
		if err := scanCopy(rows, &c); err != nil {
			return nil, err
		}
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// GetByID fetches one copy; sql.ErrNoRows when absent.
func (r *CopyRepo) GetByID(ctx context.Context, id int64) (*model.BookCopy, error) {
	var c model.BookCopy
	err := scanCopy(r.DB.QueryRowContext(ctx,
		"SELECT "+copyColumns+" FROM book_copies WHERE id = ?", id), &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a copy and populates its generated ID.  A duplicate
// barcode surfaces as ErrDuplicate.
func (r *CopyRepo) Create(ctx context.Context, c *model.BookCopy) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO book_copies (book_id, shelf_id, barcode, location_code, status, condition)
		 VALUES (?,?,?,?,?,?)`,
		c.BookID, c.ShelfID, c.Barcode, c.LocationCode,
		defaultStr(c.Status, model.CopyStatusAvailable), defaultStr(c.Condition, model.CopyConditionGood))
	if err != nil {
		if isUniqueViolation(err, "book_copies.barcode") {
			return fmt.Errorf("barcode %q: %w", c.Barcode, ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// Update rewrites a copy; sql.ErrNoRows when absent.
func (r *CopyRepo) Update(ctx context.Context, c *model.BookCopy) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE book_copies SET book_id=?, shelf_id=?, barcode=?, location_code=?, status=?, condition=? WHERE id=?`,
		c.BookID, c.ShelfID, c.Barcode, c.LocationCode, c.Status, c.Condition, c.ID)
	if err != nil {
		if isUniqueViolation(err, "book_copies.barcode") {
			return fmt.Errorf("barcode %q: %w", c.Barcode, ErrDuplicate)
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

// Delete removes a copy; sql.ErrNoRows when absent, ErrInUse when a
// loan still references it.
func (r *CopyRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM book_copies WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("copy %d: %w", id, ErrInUse)
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

// Move reshelves a copy and recomputes its location code from the
// destination shelf's section and the copy's existing numeric suffix.
// Both the copy and the shelf must exist; sql.ErrNoRows otherwise.
func (r *CopyRepo) Move(ctx context.Context, copyID, shelfID int64) (*model.BookCopy, error) {
	c, err := r.GetByID(ctx, copyID)
	if err != nil {
		return nil, err
	}
	var section string
	if err := r.DB.QueryRowContext(ctx,
		"SELECT section FROM shelves WHERE id = ?", shelfID).Scan(&section); err != nil {
		return nil, err
	}
	newCode := section + "-" + locationSuffix(c.LocationCode, c.ID)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE book_copies SET shelf_id = ?, location_code = ? WHERE id = ?",
		shelfID, newCode, copyID); err != nil {
		return nil, err
	}
	c.ShelfID = &shelfID
	c.LocationCode = newCode
	return c, nil
}

// locationSuffix extracts the sequence part of an existing location
// code ("A-012" -> "012").  When the code has no suffix the copy id,
// zero-padded, keeps codes unique per shelf section.
func locationSuffix(code string, copyID int64) string {
	if i := strings.LastIndex(code, "-"); i >= 0 && i+1 < len(code) {
		return code[i+1:]
	}
	return fmt.Sprintf("%03d", copyID)
}

// Availability summarizes the copies of one book: totals per status,
// damaged count, and the shelf location of each available copy.
func (r *CopyRepo) Availability(ctx context.Context, bookID int64) (*model.Availability, error) {
	av := &model.Availability{BookID: bookID, Locations: []model.CopyLocation{}}
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN condition IN ('Poor','Damaged') THEN 1 ELSE 0 END), 0)
		 FROM book_copies WHERE book_id = ?`,
		model.CopyStatusAvailable, model.CopyStatusCheckedOut, bookID).
		Scan(&av.TotalCopies, &av.AvailableCopies, &av.CheckedOutCopies, &av.DamagedCopies)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT bc.id, bc.barcode, bc.location_code, COALESCE(s.name, '')
		 FROM book_copies bc
		 LEFT JOIN shelves s ON s.id = bc.shelf_id
		 WHERE bc.book_id = ? AND bc.status = ?
		 ORDER BY bc.barcode`,
		bookID, model.CopyStatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var loc model.CopyLocation
		if err := rows.Scan(&loc.CopyID, &loc.Barcode, &loc.LocationCode, &loc.ShelfName); err != nil {
			return nil, err
		}
		av.Locations = append(av.Locations, loc)
	}
	return av, rows.Err()
}

// GetManyTx loads the requested copies inside a transaction.  Callers
// compare the result length against the request to detect unknown ids.
func (r *CopyRepo) GetManyTx(ctx context.Context, tx *sql.Tx, ids []int64) ([]model.BookCopy, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(ids))
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	query := "SELECT " + copyColumns + " FROM book_copies WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	copies := make([]model.BookCopy, 0, len(ids))
	for rows.Next() {
		var c model.BookCopy
		if err := scanCopy(rows, &c); err != nil {
			return nil, err
		}
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// BulkUpdateStatusTx flips the status of many copies in one statement
// within the provided transaction.
func (r *CopyRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []int64, status string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, status)
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	query := "UPDATE book_copies SET status = ? WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
