package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "lib.db")
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	path := openTestDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(db, true))
	// Running it again must not fail or duplicate seed rows.
	require.NoError(t, EnsureSchema(db, true))

	var books, copies, members, users int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM books").Scan(&books))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM book_copies").Scan(&copies))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM members").Scan(&members))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&users))
	require.Equal(t, 3, books)
	require.Equal(t, 6, copies)
	require.Equal(t, 1, members)
	require.Equal(t, 1, users)
}

func TestEnsureSchemaBackfillsColumns(t *testing.T) {
	path := openTestDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Simulate an older database whose loans table predates reviews
	// and transaction grouping.
	_, err = db.Exec(`CREATE TABLE loans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_copy_id INTEGER NOT NULL,
		member_id INTEGER NOT NULL,
		checkout_date TEXT NOT NULL,
		due_date TEXT NOT NULL
	);`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO loans (book_copy_id, member_id, checkout_date, due_date) VALUES (1, 1, '2024-01-01', '2024-01-15')")
	require.NoError(t, err)

	require.NoError(t, EnsureSchema(db, false))

	// The old row survives and picked up the defaults.
	var status, txn string
	var returnDate *string
	err = db.QueryRow("SELECT status, transaction_id, return_date FROM loans WHERE id = 1").Scan(&status, &txn, &returnDate)
	require.NoError(t, err)
	require.Equal(t, "Borrowed", status)
	require.Equal(t, "", txn)
	require.Nil(t, returnDate)
}

func TestEnsureSchemaNoSeedLeavesTablesEmpty(t *testing.T) {
	path := openTestDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(db, false))

	var books int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM books").Scan(&books))
	require.Equal(t, 0, books)
}
