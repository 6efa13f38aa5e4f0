package database

import (
	"database/sql"
	"fmt"
	"strings"

	"librarydesk/internal/utils"
)

// tableSpec describes one logical table: the DDL used when the table
// is absent, and the full column set used to backfill columns that an
// older database file is missing.  Backfill is additive only, the
// schema manager never drops or rewrites existing data.
type tableSpec struct {
	name    string
	create  string
	columns map[string]string // column name -> DDL appended to ALTER TABLE ADD COLUMN
}

var tables = []tableSpec{
	{
		name: "books",
		create: `CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			isbn TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Active',
			cover_url TEXT NOT NULL DEFAULT '',
			cover_color TEXT NOT NULL DEFAULT '',
			publisher TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT ''
		);`,
		columns: map[string]string{
			"author":      "TEXT NOT NULL DEFAULT ''",
			"isbn":        "TEXT NOT NULL DEFAULT ''",
			"category":    "TEXT NOT NULL DEFAULT ''",
			"status":      "TEXT NOT NULL DEFAULT 'Active'",
			"cover_url":   "TEXT NOT NULL DEFAULT ''",
			"cover_color": "TEXT NOT NULL DEFAULT ''",
			"publisher":   "TEXT NOT NULL DEFAULT ''",
			"year":        "INTEGER NOT NULL DEFAULT 0",
			"description": "TEXT NOT NULL DEFAULT ''",
		},
	},
	{
		name: "shelves",
		create: `CREATE TABLE IF NOT EXISTS shelves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			section TEXT NOT NULL DEFAULT 'A',
			code TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL DEFAULT 50
		);`,
		columns: map[string]string{
			"location": "TEXT NOT NULL DEFAULT ''",
			"section":  "TEXT NOT NULL DEFAULT 'A'",
			"code":     "TEXT NOT NULL DEFAULT ''",
			"capacity": "INTEGER NOT NULL DEFAULT 50",
		},
	},
	{
		name: "book_copies",
		create: `CREATE TABLE IF NOT EXISTS book_copies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL REFERENCES books(id),
			shelf_id INTEGER REFERENCES shelves(id),
			barcode TEXT NOT NULL UNIQUE,
			location_code TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Available',
			condition TEXT NOT NULL DEFAULT 'Good'
		);`,
		columns: map[string]string{
			"shelf_id":      "INTEGER REFERENCES shelves(id)",
			"location_code": "TEXT NOT NULL DEFAULT ''",
			"status":        "TEXT NOT NULL DEFAULT 'Available'",
			"condition":     "TEXT NOT NULL DEFAULT 'Good'",
		},
	},
	{
		name: "members",
		create: `CREATE TABLE IF NOT EXISTS members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			membership_type TEXT NOT NULL DEFAULT 'Standard',
			status TEXT NOT NULL DEFAULT 'Active',
			pin TEXT NOT NULL DEFAULT '',
			qr_code TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			dob TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT ''
		);`,
		columns: map[string]string{
			"phone":           "TEXT NOT NULL DEFAULT ''",
			"membership_type": "TEXT NOT NULL DEFAULT 'Standard'",
			"status":          "TEXT NOT NULL DEFAULT 'Active'",
			"pin":             "TEXT NOT NULL DEFAULT ''",
			"qr_code":         "TEXT NOT NULL DEFAULT ''",
			"address":         "TEXT NOT NULL DEFAULT ''",
			"dob":             "TEXT NOT NULL DEFAULT ''",
			"gender":          "TEXT NOT NULL DEFAULT ''",
		},
	},
	{
		name: "users",
		create: `CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'librarian',
			status TEXT NOT NULL DEFAULT 'Active',
			pin_code TEXT NOT NULL DEFAULT '',
			qr_auth_key TEXT NOT NULL DEFAULT '',
			member_id INTEGER REFERENCES members(id)
		);`,
		columns: map[string]string{
			"email":       "TEXT NOT NULL DEFAULT ''",
			"password":    "TEXT NOT NULL DEFAULT ''",
			"role":        "TEXT NOT NULL DEFAULT 'librarian'",
			"status":      "TEXT NOT NULL DEFAULT 'Active'",
			"pin_code":    "TEXT NOT NULL DEFAULT ''",
			"qr_auth_key": "TEXT NOT NULL DEFAULT ''",
			"member_id":   "INTEGER REFERENCES members(id)",
		},
	},
	{
		name: "loans",
		create: `CREATE TABLE IF NOT EXISTS loans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_copy_id INTEGER NOT NULL REFERENCES book_copies(id),
			member_id INTEGER NOT NULL REFERENCES members(id),
			checkout_date TEXT NOT NULL,
			due_date TEXT NOT NULL,
			return_date TEXT,
			status TEXT NOT NULL DEFAULT 'Borrowed',
			rating INTEGER,
			review TEXT,
			transaction_id TEXT NOT NULL DEFAULT ''
		);`,
		columns: map[string]string{
			"return_date":    "TEXT",
			"status":         "TEXT NOT NULL DEFAULT 'Borrowed'",
			"rating":         "INTEGER",
			"review":         "TEXT",
			"transaction_id": "TEXT NOT NULL DEFAULT ''",
		},
	},
}

// EnsureSchema creates missing tables, backfills missing columns with
// safe defaults and optionally seeds a fresh database with sample
// rows.  It is idempotent and safe to invoke on every startup; any
// error is returned to the caller and must abort startup, since a
// partially migrated schema cannot be assumed consistent.
func EnsureSchema(db *sql.DB, seed bool) error {
	for _, t := range tables {
		if _, err := db.Exec(t.create); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		if err := backfillColumns(db, t); err != nil {
			return err
		}
	}
	if seed {
		if err := seedSampleData(db); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}
	return nil
}

// backfillColumns adds any column of spec that the live table lacks.
// SQLite's ALTER TABLE ADD COLUMN is non-destructive, existing rows
// receive the declared default.
func backfillColumns(db *sql.DB, spec tableSpec) error {
	existing, err := tableColumns(db, spec.name)
	if err != nil {
		return err
	}
	for col, ddl := range spec.columns {
		if _, ok := existing[col]; ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", spec.name, col, ddl)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", spec.name, col, err)
		}
	}
	return nil
}

// tableColumns returns the set of column names of a table.
func tableColumns(db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()
	cols := make(map[string]struct{})
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &primaryKey); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = struct{}{}
	}
	return cols, rows.Err()
}

// seedSampleData populates an empty database with a small working set
// so a fresh install is usable immediately.  It is a no-op when any
// book already exists.
func seedSampleData(db *sql.DB) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM books;").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	shelves := []struct {
		name, location, section, code string
	}{
		{"Fiction A", "Ground floor", "A", "SH-A"},
		{"Non-fiction B", "First floor", "B", "SH-B"},
	}
	shelfIDs := make([]int64, 0, len(shelves))
	for _, s := range shelves {
		res, err := tx.Exec(
			"INSERT INTO shelves (name, location, section, code, capacity) VALUES (?,?,?,?,50)",
			s.name, s.location, s.section, s.code)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		shelfIDs = append(shelfIDs, id)
	}

	books := []struct {
		title, author, isbn, category string
	}{
		{"The Go Programming Language", "Alan A. A. Donovan", "978-0134190440", "Programming"},
		{"The Pragmatic Programmer", "Andrew Hunt", "978-0201616224", "Programming"},
		{"A Wizard of Earthsea", "Ursula K. Le Guin", "978-0547773742", "Fantasy"},
	}
	for i, b := range books {
		res, err := tx.Exec(
			"INSERT INTO books (title, author, isbn, category) VALUES (?,?,?,?)",
			b.title, b.author, b.isbn, b.category)
		if err != nil {
			return err
		}
		bookID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		shelfID := shelfIDs[i%len(shelfIDs)]
		for c := 1; c <= 2; c++ {
			barcode, err := utils.NewBarcode()
			if err != nil {
				return err
			}
			section := shelves[i%len(shelves)].section
			loc := fmt.Sprintf("%s-%03d", section, i*2+c)
			if _, err := tx.Exec(
				"INSERT INTO book_copies (book_id, shelf_id, barcode, location_code, status, condition) VALUES (?,?,?,?, 'Available', 'Good')",
				bookID, shelfID, barcode, loc); err != nil {
				return err
			}
		}
	}

	pin, err := utils.NewPIN(6)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO members (name, email, phone, membership_type, status, pin) VALUES ('Sample Member','member@example.com','','Standard','Active',?)",
		pin); err != nil {
		return err
	}

	hash, err := utils.HashPassword("admin", 10)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO users (username, email, password, role, status) VALUES ('admin','admin@example.com',?,'admin','Active')",
		hash); err != nil {
		return err
	}

	return tx.Commit()
}
