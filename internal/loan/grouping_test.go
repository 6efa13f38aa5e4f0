package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/model"
	"librarydesk/internal/repository"
)

func detailRow(id, copyID int64, txn, title, barcode string) repository.Detail {
	return repository.Detail{
		Loan: model.Loan{
			ID:            id,
			BookCopyID:    copyID,
			MemberID:      7,
			CheckoutDate:  "2026-08-01",
			DueDate:       "2026-08-15",
			Status:        model.LoanStatusBorrowed,
			TransactionID: txn,
		},
		BookID:     copyID,
		Title:      title,
		Barcode:    barcode,
		MemberName: "Dana Reyes",
	}
}

func TestGroupByTransactionMergesSharedTransaction(t *testing.T) {
	rows := []repository.Detail{
		detailRow(1, 10, "TXN-A", "Dune", "LIB-0000000001"),
		detailRow(2, 11, "TXN-A", "Hyperion", "LIB-0000000002"),
		detailRow(3, 12, "TXN-B", "Solaris", "LIB-0000000003"),
	}

	groups := GroupByTransaction(rows)
	require.Len(t, groups, 2)

	g := groups[0]
	assert.Equal(t, "TXN-A", g.TransactionID)
	assert.Equal(t, []int64{1, 2}, g.LoanIDs)
	assert.Equal(t, []int64{10, 11}, g.CopyIDs)
	assert.Equal(t, 2, g.TotalBooks)
	assert.Equal(t, "2 books: Dune, Hyperion", g.Title)
	assert.Equal(t, "Dana Reyes", g.MemberName)

	single := groups[1]
	assert.Equal(t, "TXN-B", single.TransactionID)
	assert.Equal(t, 1, single.TotalBooks)
	assert.Equal(t, "Solaris", single.Title)
}

func TestGroupByTransactionEmptyTransactionIsSingleton(t *testing.T) {
	rows := []repository.Detail{
		detailRow(1, 10, "", "Dune", "LIB-0000000001"),
		detailRow(2, 11, "", "Hyperion", "LIB-0000000002"),
	}

	groups := GroupByTransaction(rows)
	require.Len(t, groups, 2)
	assert.Equal(t, "Dune", groups[0].Title)
	assert.Equal(t, "Hyperion", groups[1].Title)
}

func TestGroupByTransactionPartialReturnStaysOpen(t *testing.T) {
	returned := "2026-08-10"
	a := detailRow(1, 10, "TXN-A", "Dune", "LIB-0000000001")
	a.Status = model.LoanStatusReturned
	a.ReturnDate = &returned
	b := detailRow(2, 11, "TXN-A", "Hyperion", "LIB-0000000002")

	groups := GroupByTransaction([]repository.Detail{a, b})
	require.Len(t, groups, 1)
	assert.Equal(t, model.LoanStatusBorrowed, groups[0].Status)
	assert.Nil(t, groups[0].ReturnDate)
}

func TestGroupByTransactionFullyReturnedGroup(t *testing.T) {
	returned := "2026-08-10"
	a := detailRow(1, 10, "TXN-A", "Dune", "LIB-0000000001")
	a.Status = model.LoanStatusReturned
	a.ReturnDate = &returned
	b := detailRow(2, 11, "TXN-A", "Hyperion", "LIB-0000000002")
	b.Status = model.LoanStatusReturned
	b.ReturnDate = &returned

	groups := GroupByTransaction([]repository.Detail{a, b})
	require.Len(t, groups, 1)
	assert.Equal(t, model.LoanStatusReturned, groups[0].Status)
	require.NotNil(t, groups[0].ReturnDate)
	assert.Equal(t, returned, *groups[0].ReturnDate)
}

func TestGroupByTransactionEmptyInput(t *testing.T) {
	assert.Empty(t, GroupByTransaction(nil))
}
