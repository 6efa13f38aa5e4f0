package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/database"
	"librarydesk/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db, false))
	return db
}

func seedShelf(t *testing.T, db *sql.DB, name, section string) *model.Shelf {
	t.Helper()
	s := &model.Shelf{Name: name, Section: section}
	require.NoError(t, (&ShelfRepo{DB: db}).Create(context.Background(), s))
	return s
}

func seedBookWithCopies(t *testing.T, db *sql.DB, title string, copies []model.BookCopy) (int64, []int64) {
	t.Helper()
	b := &model.Book{Title: title, Author: "A", ISBN: "isbn-" + title}
	require.NoError(t, (&BookRepo{DB: db}).Create(context.Background(), b))
	repo := &CopyRepo{DB: db}
	ids := make([]int64, 0, len(copies))
	for i := range copies {
		copies[i].BookID = b.ID
		require.NoError(t, repo.Create(context.Background(), &copies[i]))
		ids = append(ids, copies[i].ID)
	}
	return b.ID, ids
}

func TestAvailabilityCountsOverlap(t *testing.T) {
	db := newTestDB(t)
	shelf := seedShelf(t, db, "Fiction A", "A")

	// Three copies: one checked out, one available but in poor
	// condition, one available and fine.  The damaged count overlaps
	// with available.
	bookID, _ := seedBookWithCopies(t, db, "dune", []model.BookCopy{
		{Barcode: "c1", Status: model.CopyStatusCheckedOut, Condition: model.CopyConditionGood},
		{Barcode: "c2", Status: model.CopyStatusAvailable, Condition: model.CopyConditionPoor, ShelfID: &shelf.ID, LocationCode: "A-001"},
		{Barcode: "c3", Status: model.CopyStatusAvailable, Condition: model.CopyConditionGood, ShelfID: &shelf.ID, LocationCode: "A-002"},
	})

	av, err := (&CopyRepo{DB: db}).Availability(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, 3, av.TotalCopies)
	assert.Equal(t, 2, av.AvailableCopies)
	assert.Equal(t, 1, av.CheckedOutCopies)
	assert.Equal(t, 1, av.DamagedCopies)

	require.Len(t, av.Locations, 2)
	assert.Equal(t, "c2", av.Locations[0].Barcode)
	assert.Equal(t, "Fiction A", av.Locations[0].ShelfName)
}

func TestAvailabilityNoCopies(t *testing.T) {
	db := newTestDB(t)
	av, err := (&CopyRepo{DB: db}).Availability(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, 0, av.TotalCopies)
	assert.Empty(t, av.Locations)
}

func TestMoveRecomputesLocationCode(t *testing.T) {
	db := newTestDB(t)
	src := seedShelf(t, db, "Fiction A", "A")
	dst := seedShelf(t, db, "Science B", "B")
	_, ids := seedBookWithCopies(t, db, "dune", []model.BookCopy{
		{Barcode: "c1", ShelfID: &src.ID, LocationCode: "A-012"},
	})

	repo := &CopyRepo{DB: db}
	moved, err := repo.Move(context.Background(), ids[0], dst.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-012", moved.LocationCode)
	require.NotNil(t, moved.ShelfID)
	assert.Equal(t, dst.ID, *moved.ShelfID)
}

func TestMoveWithoutSuffixFallsBackToCopyID(t *testing.T) {
	db := newTestDB(t)
	dst := seedShelf(t, db, "Science B", "B")
	_, ids := seedBookWithCopies(t, db, "dune", []model.BookCopy{
		{Barcode: "c1"},
	})

	moved, err := (&CopyRepo{DB: db}).Move(context.Background(), ids[0], dst.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^B-\d{3}$`, moved.LocationCode)
}

func TestMoveMissingShelf(t *testing.T) {
	db := newTestDB(t)
	_, ids := seedBookWithCopies(t, db, "dune", []model.BookCopy{{Barcode: "c1"}})

	_, err := (&CopyRepo{DB: db}).Move(context.Background(), ids[0], 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateDuplicateBarcode(t *testing.T) {
	db := newTestDB(t)
	bookID, _ := seedBookWithCopies(t, db, "dune", []model.BookCopy{{Barcode: "c1"}})

	err := (&CopyRepo{DB: db}).Create(context.Background(), &model.BookCopy{BookID: bookID, Barcode: "c1"})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestBookDeleteBlockedByCopies(t *testing.T) {
	db := newTestDB(t)
	bookID, _ := seedBookWithCopies(t, db, "dune", []model.BookCopy{{Barcode: "c1"}})

	err := (&BookRepo{DB: db}).Delete(context.Background(), bookID)
	assert.ErrorIs(t, err, ErrInUse)

	// The row is untouched.
	_, err = (&BookRepo{DB: db}).GetByID(context.Background(), bookID)
	assert.NoError(t, err)
}

func TestShelfDeleteUnshelvesCopies(t *testing.T) {
	db := newTestDB(t)
	shelf := seedShelf(t, db, "Fiction A", "A")
	_, ids := seedBookWithCopies(t, db, "dune", []model.BookCopy{
		{Barcode: "c1", ShelfID: &shelf.ID, LocationCode: "A-001"},
	})

	require.NoError(t, (&ShelfRepo{DB: db}).Delete(context.Background(), shelf.ID))

	c, err := (&CopyRepo{DB: db}).GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Nil(t, c.ShelfID)
}

func TestMemberFindByPINIgnoresEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := &MemberRepo{DB: db}
	require.NoError(t, repo.Create(context.Background(), &model.Member{
		Name: "Dana", Email: "dana@example.com", Status: model.MemberStatusActive,
	}))

	// A member row with an empty PIN must never match an empty probe.
	_, err := repo.FindByPIN(context.Background(), "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
