package commands

import (
	"database/sql"

	"github.com/horasecreta/advisor/db"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
)

// openDatabase opens and migrates the usage ledger at dbPath
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, errors.WithHint(errors.New("usage ledger is disabled"),
			"set database.path in am.toml or ADVISOR_DATABASE_PATH")
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}
