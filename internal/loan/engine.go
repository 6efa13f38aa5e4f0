package loan

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"librarydesk/internal/apperr"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
	"librarydesk/internal/utils"
)

const dateLayout = "2006-01-02"

// Engine owns the loan lifecycle.  Every mutation that touches both a
// loan row and a copy's status runs inside one database transaction so
// that concurrent borrows targeting the same copy serialize at the
// storage layer: whichever commits first wins and the loser sees the
// copy as unavailable.
type Engine struct {
	DB      *sql.DB
	Members *repository.MemberRepo
	Copies  *repository.CopyRepo
	Loans   *repository.LoanRepo
}

func NewEngine(db *sql.DB, members *repository.MemberRepo, copies *repository.CopyRepo, loans *repository.LoanRepo) *Engine {
	return &Engine{DB: db, Members: members, Copies: copies, Loans: loans}
}

// Borrow lends the given copies to a member as one transaction group.
// The whole batch succeeds or nothing does: any copy that is not
// Available aborts the call with a conflict naming the offending
// barcodes.  Returns the created loan rows.
func (e *Engine) Borrow(ctx context.Context, memberID int64, copyIDs []int64, checkoutDate, dueDate string) ([]model.Loan, error) {
	m, err := e.Members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Member not found")
		}
		return nil, apperr.Wrap(apperr.System, "member lookup failed", err)
	}
	if m.Status != model.MemberStatusActive {
		return nil, apperr.New(apperr.Validation, "Member is not active")
	}

	unique := dedupe(copyIDs)
	if len(unique) == 0 {
		return nil, apperr.New(apperr.Validation, "No copies selected")
	}

	checkoutDate, dueDate, err = normalizeDates(checkoutDate, dueDate)
	if err != nil {
		return nil, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "begin transaction failed", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-check availability inside the transaction; a concurrent
	// borrow may have taken a copy since the UI last refreshed.
	copies, err := e.Copies.GetManyTx(ctx, tx, unique)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "copy lookup failed", err)
	}
	if len(copies) != len(unique) {
		return nil, apperr.New(apperr.NotFound, "One or more copies not found")
	}
	var unavailable []string
	for _, c := range copies {
		if c.Status != model.CopyStatusAvailable {
			unavailable = append(unavailable, c.Barcode)
		}
	}
	if len(unavailable) > 0 {
		return nil, apperr.Newf(apperr.Conflict, "Copies unavailable: %s", strings.Join(unavailable, ", "))
	}

	transactionID, err := utils.NewTransactionID(memberID, time.Now())
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "generate transaction id failed", err)
	}
	loans := make([]model.Loan, 0, len(copies))
	for _, c := range copies {
		loans = append(loans, model.Loan{
			BookCopyID:    c.ID,
			MemberID:      memberID,
			CheckoutDate:  checkoutDate,
			DueDate:       dueDate,
			Status:        model.LoanStatusBorrowed,
			TransactionID: transactionID,
		})
	}
	if err := e.Loans.CreateBulkTx(ctx, tx, loans); err != nil {
		return nil, apperr.Wrap(apperr.System, "create loans failed", err)
	}
	if err := e.Copies.BulkUpdateStatusTx(ctx, tx, unique, model.CopyStatusCheckedOut); err != nil {
		return nil, apperr.Wrap(apperr.System, "update copy status failed", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.System, "commit failed", err)
	}
	committed = true
	return loans, nil
}

// Return closes the given loans.  When the first loan belongs to a
// transaction group the set auto-expands to every still-open loan of
// that group, so the caller need not know the full batch.  A loan that
// is already returned fails the call with a conflict; this is the
// strict direct entry point.
func (e *Engine) Return(ctx context.Context, loanIDs []int64) ([]model.Loan, error) {
	unique := dedupe(loanIDs)
	if len(unique) == 0 {
		return nil, apperr.New(apperr.Validation, "No loans selected")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "begin transaction failed", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	loans, err := e.Loans.ByIDsTx(ctx, tx, unique)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "loan lookup failed", err)
	}
	if len(loans) != len(unique) {
		return nil, apperr.New(apperr.NotFound, "Loan not found")
	}
	for _, l := range loans {
		if l.ReturnDate != nil {
			return nil, apperr.New(apperr.Conflict, "Loan already returned")
		}
	}

	// Auto-expand to the rest of the first loan's transaction group.
	first := loans[0]
	for _, l := range loans {
		if l.ID == unique[0] {
			first = l
			break
		}
	}
	if first.TransactionID != "" {
		groupLoans, err := e.Loans.OpenByTransactionTx(ctx, tx, first.TransactionID)
		if err != nil {
			return nil, apperr.Wrap(apperr.System, "loan lookup failed", err)
		}
		loans = mergeLoans(loans, groupLoans)
	}

	today := todayISO()
	if err := e.closeTx(ctx, tx, loans, today); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.System, "commit failed", err)
	}
	committed = true
	// Reflect the committed state on the rows handed back.
	for i := range loans {
		loans[i].Status = model.LoanStatusReturned
		loans[i].ReturnDate = &today
	}
	return loans, nil
}

// ReturnWithReview closes a single loan and attaches an optional
// rating and review.  The loan is re-fetched and verified to belong to
// the member; unknown loans fail with not-found and loans that are
// already closed fail with a conflict.
func (e *Engine) ReturnWithReview(ctx context.Context, loanID, memberID int64, rating *int, review *string) (*model.Loan, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, apperr.New(apperr.Validation, "Rating must be between 1 and 5")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "begin transaction failed", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	loans, err := e.Loans.ByIDsTx(ctx, tx, []int64{loanID})
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "loan lookup failed", err)
	}
	if len(loans) == 0 || loans[0].MemberID != memberID {
		return nil, apperr.New(apperr.NotFound, "Loan not found")
	}
	l := loans[0]
	if l.ReturnDate != nil {
		return nil, apperr.New(apperr.Conflict, "Loan already returned")
	}

	if err := e.Loans.SetReviewTx(ctx, tx, l.ID, rating, review); err != nil {
		return nil, apperr.Wrap(apperr.System, "store review failed", err)
	}
	today := todayISO()
	if err := e.closeTx(ctx, tx, []model.Loan{l}, today); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.System, "commit failed", err)
	}
	committed = true

	l.Rating = rating
	l.Review = review
	l.ReturnDate = &today
	l.Status = model.LoanStatusReturned
	return &l, nil
}

// ReturnScanned is the QR-triggered entry point.  The payload names
// loan ids and/or a transaction id plus the member; loans belonging to
// other members are ignored and already-returned loans are silently
// skipped.  An empty remaining set is not an error: the call reports
// success with a count of zero.
func (e *Engine) ReturnScanned(ctx context.Context, loanIDs []int64, memberID int64, transactionID string) (int, error) {
	if memberID == 0 {
		return 0, apperr.New(apperr.Validation, "Member id is required")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.System, "begin transaction failed", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var candidates []model.Loan
	if ids := dedupe(loanIDs); len(ids) > 0 {
		candidates, err = e.Loans.ByIDsTx(ctx, tx, ids)
	} else if transactionID != "" {
		candidates, err = e.Loans.OpenByTransactionTx(ctx, tx, transactionID)
	} else {
		return 0, apperr.New(apperr.Validation, "No loans or transaction id supplied")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.System, "loan lookup failed", err)
	}

	open := make([]model.Loan, 0, len(candidates))
	for _, l := range candidates {
		if l.MemberID != memberID {
			continue // not this member's loan
		}
		if l.ReturnDate != nil {
			continue // already returned, skip silently
		}
		open = append(open, l)
	}
	if len(open) == 0 {
		// Nothing to do; scanning an already-settled receipt twice is
		// normal at the desk.
		_ = tx.Rollback()
		committed = true
		return 0, nil
	}

	if err := e.closeTx(ctx, tx, open, todayISO()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.System, "commit failed", err)
	}
	committed = true
	return len(open), nil
}

// closeTx marks the given open loans returned as of returnDate and
// flips their copies back to Available within the caller's
// transaction.
func (e *Engine) closeTx(ctx context.Context, tx *sql.Tx, loans []model.Loan, returnDate string) error {
	ids := make([]int64, 0, len(loans))
	copyIDs := make([]int64, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.ID)
		copyIDs = append(copyIDs, l.BookCopyID)
	}
	if _, err := e.Loans.MarkReturnedTx(ctx, tx, ids, returnDate); err != nil {
		return apperr.Wrap(apperr.System, "close loans failed", err)
	}
	if err := e.Copies.BulkUpdateStatusTx(ctx, tx, copyIDs, model.CopyStatusAvailable); err != nil {
		return apperr.Wrap(apperr.System, "update copy status failed", err)
	}
	return nil
}

// ListActive returns open loans grouped by borrow transaction.
func (e *Engine) ListActive(ctx context.Context) ([]Group, error) {
	return e.listGrouped(ctx, repository.ListFilter{ActiveOnly: true})
}

// ListOverdue returns open loans past their due date.  Overdue is
// derived here, never stored on the row.
func (e *Engine) ListOverdue(ctx context.Context) ([]Group, error) {
	return e.listGrouped(ctx, repository.ListFilter{ActiveOnly: true, OverdueBefore: todayISO()})
}

// ListAll returns every loan grouped by borrow transaction.
func (e *Engine) ListAll(ctx context.Context) ([]Group, error) {
	return e.listGrouped(ctx, repository.ListFilter{})
}

// ListByMember returns one member's loans grouped by transaction.
func (e *Engine) ListByMember(ctx context.Context, memberID int64) ([]Group, error) {
	return e.listGrouped(ctx, repository.ListFilter{MemberID: memberID})
}

func (e *Engine) listGrouped(ctx context.Context, f repository.ListFilter) ([]Group, error) {
	rows, err := e.Loans.ListDetails(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.System, "list loans failed", err)
	}
	return GroupByTransaction(rows), nil
}

// normalizeDates validates and defaults the borrow dates.  An empty
// checkout date means today; an empty due date means two weeks out.
func normalizeDates(checkout, due string) (string, string, error) {
	if checkout == "" {
		checkout = todayISO()
	}
	co, err := time.Parse(dateLayout, checkout)
	if err != nil {
		return "", "", apperr.Newf(apperr.Validation, "Invalid checkout date %q", checkout)
	}
	if due == "" {
		due = co.AddDate(0, 0, 14).Format(dateLayout)
	}
	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return "", "", apperr.Newf(apperr.Validation, "Invalid due date %q", due)
	}
	if d.Before(co) {
		return "", "", apperr.New(apperr.Validation, "Due date must not be before checkout date")
	}
	return checkout, due, nil
}

func todayISO() string {
	return time.Now().UTC().Format(dateLayout)
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mergeLoans(base, extra []model.Loan) []model.Loan {
	seen := make(map[int64]struct{}, len(base))
	for _, l := range base {
		seen[l.ID] = struct{}{}
	}
	for _, l := range extra {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		base = append(base, l)
	}
	return base
}
