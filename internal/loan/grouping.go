// Package loan implements the borrow/return transaction engine and the
// query-side grouping of loans into borrow transactions.
package loan

import (
	"fmt"
	"strings"

	"librarydesk/internal/model"
	"librarydesk/internal/repository"
)

// Group is one logical borrow event as shown to the UI: either a
// single loan, or every loan created by one borrow call collapsed into
// one entry.  Grouping is purely a presentation transform over raw
// rows; nothing about it is stored.
type Group struct {
	TransactionID string   `json:"transaction_id"`
	LoanIDs       []int64  `json:"loan_ids"`
	CopyIDs       []int64  `json:"copy_ids"`
	Barcodes      []string `json:"barcodes"`
	Titles        []string `json:"titles"`
	Title         string   `json:"title"`
	TotalBooks    int      `json:"total_books"`
	MemberID      int64    `json:"member_id"`
	MemberName    string   `json:"member_name"`
	CheckoutDate  string   `json:"checkout_date"`
	DueDate       string   `json:"due_date"`
	ReturnDate    *string  `json:"return_date"`
	Status        string   `json:"status"`
}

// GroupByTransaction collapses rows sharing a non-empty transaction id
// into a single group, preserving the order of first appearance.  Rows
// without a transaction id become singleton groups.  The transform is
// idempotent over the raw row sequence: same rows in, same groups out.
func GroupByTransaction(rows []repository.Detail) []Group {
	groups := make([]Group, 0, len(rows))
	index := make(map[string]int)

	for _, row := range rows {
		if row.TransactionID == "" {
			groups = append(groups, newGroup(row))
			continue
		}
		if i, ok := index[row.TransactionID]; ok {
			appendRow(&groups[i], row)
			continue
		}
		index[row.TransactionID] = len(groups)
		groups = append(groups, newGroup(row))
	}

	for i := range groups {
		finishGroup(&groups[i])
	}
	return groups
}

func newGroup(row repository.Detail) Group {
	return Group{
		TransactionID: row.TransactionID,
		LoanIDs:       []int64{row.ID},
		CopyIDs:       []int64{row.BookCopyID},
		Barcodes:      []string{row.Barcode},
		Titles:        []string{row.Title},
		MemberID:      row.MemberID,
		MemberName:    row.MemberName,
		CheckoutDate:  row.CheckoutDate,
		DueDate:       row.DueDate,
		ReturnDate:    row.ReturnDate,
		Status:        row.Status,
	}
}

func appendRow(g *Group, row repository.Detail) {
	g.LoanIDs = append(g.LoanIDs, row.ID)
	g.CopyIDs = append(g.CopyIDs, row.BookCopyID)
	g.Barcodes = append(g.Barcodes, row.Barcode)
	g.Titles = append(g.Titles, row.Title)
	// A group counts as open while any of its loans is open.
	if row.Status != model.LoanStatusReturned {
		g.Status = row.Status
		g.ReturnDate = nil
	}
}

func finishGroup(g *Group) {
	g.TotalBooks = len(g.LoanIDs)
	if g.TotalBooks == 1 {
		g.Title = g.Titles[0]
		return
	}
	g.Title = fmt.Sprintf("%d books: %s", g.TotalBooks, strings.Join(g.Titles, ", "))
}
