package db

import (
	"strings"

	"github.com/horasecreta/advisor/errors"
)

// ErrDatabaseClosed marks writes that raced with shutdown
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err comes from a closed *sql.DB. The
// driver does not export a sentinel, so its message is matched as well.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDatabaseClosed) || strings.Contains(err.Error(), "database is closed")
}
