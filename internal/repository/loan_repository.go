package repository

import (
	"context"
	"database/sql"
	"strings"

	"librarydesk/internal/model"
)

// LoanRepo provides persistence for loans.  Mutations that must be
// atomic with copy status flips come in Tx variants; the caller owns
// commit and rollback.
type LoanRepo struct{ DB *sql.DB }

func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{DB: db} }

const loanColumns = "id, book_copy_id, member_id, checkout_date, due_date, return_date, status, rating, review, transaction_id"

func scanLoan(row interface{ Scan(...interface{}) error }, l *model.Loan) error {
	var returnDate sql.NullString
	var rating sql.NullInt64
	var review sql.NullString
	if err := row.Scan(&l.ID, &l.BookCopyID, &l.MemberID, &l.CheckoutDate, &l.DueDate,
		&returnDate, &l.Status, &rating, &review, &l.TransactionID); err != nil {
		return err
	}
	if returnDate.Valid {
		v := returnDate.String
		l.ReturnDate = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		l.Rating = &v
	}
	if review.Valid {
		v := review.String
		l.Review = &v
	}
	return nil
}

// CreateBulkTx inserts one loan row per element within the provided
// transaction and populates generated IDs.  Every row of one borrow
// call shares the same transaction id; that is the caller's job.
func (r *LoanRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, loans []model.Loan) error {
	const q = `INSERT INTO loans (book_copy_id, member_id, checkout_date, due_date, status, transaction_id)
	           VALUES (?,?,?,?,?,?)`
	for i := range loans {
		l := &loans[i]
		res, err := tx.ExecContext(ctx, q,
			l.BookCopyID, l.MemberID, l.CheckoutDate, l.DueDate,
			defaultStr(l.Status, model.LoanStatusBorrowed), l.TransactionID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.ID = id
	}
	return nil
}

// GetByID fetches one loan; sql.ErrNoRows when absent.
func (r *LoanRepo) GetByID(ctx context.Context, id int64) (*model.Loan, error) {
	var l model.Loan
	err := scanLoan(r.DB.QueryRowContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE id = ?", id), &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ByIDsTx loads the requested loans, open or returned, inside a
// transaction.
func (r *LoanRepo) ByIDsTx(ctx context.Context, tx *sql.Tx, ids []int64) ([]model.Loan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(ids))
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	query := "SELECT " + loanColumns + " FROM loans WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	return r.queryLoansTx(ctx, tx, query, args...)
}

// OpenByTransactionTx returns every still-open loan sharing the given
// transaction id.
func (r *LoanRepo) OpenByTransactionTx(ctx context.Context, tx *sql.Tx, transactionID string) ([]model.Loan, error) {
	const q = "SELECT " + loanColumns + " FROM loans WHERE transaction_id = ? AND return_date IS NULL"
	return r.queryLoansTx(ctx, tx, q, transactionID)
}

func (r *LoanRepo) queryLoansTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]model.Loan, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	loans := make([]model.Loan, 0)
	for rows.Next() {
		var l model.Loan
		if err := scanLoan(rows, &l); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// MarkReturnedTx closes the given loans within the transaction.  Only
// rows whose return_date is still NULL are touched, so a loan can
// never be returned twice; the affected count tells the caller how
// many actually closed.
func (r *LoanRepo) MarkReturnedTx(ctx context.Context, tx *sql.Tx, ids []int64, returnDate string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, returnDate, model.LoanStatusReturned)
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	query := "UPDATE loans SET return_date = ?, status = ? WHERE id IN (" +
		strings.Join(placeholders, ",") + ") AND return_date IS NULL"
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetReviewTx attaches an optional rating and review to one loan.
func (r *LoanRepo) SetReviewTx(ctx context.Context, tx *sql.Tx, id int64, rating *int, review *string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE loans SET rating = COALESCE(?, rating), review = COALESCE(?, review) WHERE id = ?",
		rating, review, id)
	return err
}

// Detail is a loan row joined with its copy, book and member for
// display.  The grouping transform in the loan package consumes these
// rows directly.
type Detail struct {
	model.Loan
	BookID     int64  `json:"book_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Barcode    string `json:"barcode"`
	MemberName string `json:"member_name"`
}

// ListFilter narrows ListDetails.  Zero values mean "no filter".
type ListFilter struct {
	MemberID      int64  // only this member's loans
	ActiveOnly    bool   // return_date IS NULL and status not Returned
	OverdueBefore string // with ActiveOnly: due_date strictly before this ISO date
}

// ListDetails returns joined loan rows, newest first.  Overdue is a
// derived predicate over due_date, never a stored state.
func (r *LoanRepo) ListDetails(ctx context.Context, f ListFilter) ([]Detail, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT l.id, l.book_copy_id, l.member_id, l.checkout_date, l.due_date,
	       l.return_date, l.status, l.rating, l.review, l.transaction_id,
	       b.id, b.title, b.author, bc.barcode, m.name
	FROM loans l
	JOIN book_copies bc ON bc.id = l.book_copy_id
	JOIN books b ON b.id = bc.book_id
	JOIN members m ON m.id = l.member_id`)
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if f.MemberID != 0 {
		conds = append(conds, "l.member_id = ?")
		args = append(args, f.MemberID)
	}
	if f.ActiveOnly {
		conds = append(conds, "l.return_date IS NULL AND l.status != ?")
		args = append(args, model.LoanStatusReturned)
	}
	if f.OverdueBefore != "" {
		conds = append(conds, "l.due_date < ?")
		args = append(args, f.OverdueBefore)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY l.checkout_date DESC, l.id DESC")

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]Detail, 0)
	for rows.Next() {
		var d Detail
		var returnDate sql.NullString
		var rating sql.NullInt64
		var review sql.NullString
		if err := rows.Scan(&d.ID, &d.BookCopyID, &d.MemberID, &d.CheckoutDate, &d.DueDate,
			&returnDate, &d.Status, &rating, &review, &d.TransactionID,
			&d.BookID, &d.Title, &d.Author, &d.Barcode, &d.MemberName); err != nil {
			return nil, err
		}
		if returnDate.Valid {
			v := returnDate.String
			d.ReturnDate = &v
		}
		if rating.Valid {
			v := int(rating.Int64)
			d.Rating = &v
		}
		if review.Valid {
			v := review.String
			d.Review = &v
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
