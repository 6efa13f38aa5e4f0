// Package repository implements data access for the lending schema on
// top of database/sql.  This file defines error values and helpers
// reused across repositories so higher layers can distinguish failure
// scenarios without inspecting driver strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when an insert or update violates a unique
// constraint, such as reusing an ISBN, barcode or member email.
var ErrDuplicate = errors.New("duplicate value")

// ErrInUse is returned when a delete is blocked by rows that still
// reference the target, such as a book that still has copies.
var ErrInUse = errors.New("row still referenced")

// isFKViolation reports whether err is a SQLite foreign-key failure.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure on the given table.column.  The sqlite3 driver exposes the
// violated column in the error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
