// Package repository holds the MySQL repositories.  The sentinel errors
// below let higher layers such as services and handlers tell failure
// scenarios apart with errors.Is.  ErrForbidden means the caller does not
// own the row, ErrConflict means the row is no longer in a state that
// allows the change (for example a booking request that already left
// pending).
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a row
// owned by someone else.  Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// the current state of the row.  Handlers translate it into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by signup when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}
