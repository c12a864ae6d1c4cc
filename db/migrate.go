package db

import (
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/errors"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one NNN_description.sql file of the ledger schema
type migration struct {
	version string
	file    string
	sql     string
}

// loadMigrations reads the .sql files under dir in version order. Version
// 000 must exist: it creates the schema_migrations bookkeeping table.
func loadMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	seen := make(map[string]string, len(entries))
	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, errors.Newf("migration %s has no version prefix", name)
		}
		if prev, dup := seen[version]; dup {
			return nil, errors.Newf("migrations %s and %s share version %s", prev, name, version)
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		out = append(out, migration{version: version, file: name, sql: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	if len(out) == 0 || out[0].version != "000" {
		return nil, errors.New("migration 000 (schema_migrations) is missing")
	}
	return out, nil
}

// appliedVersions returns the recorded versions, or an empty set on a fresh
// database where schema_migrations does not exist yet.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var n int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&n); err != nil {
		return nil, errors.Wrap(err, "inspect schema")
	}
	applied := make(map[string]bool)
	if n == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan applied migration")
		}
		applied[v] = true
	}
	return applied, errors.Wrap(rows.Err(), "list applied migrations")
}

// Migrate brings the usage ledger schema up to date. Each pending migration
// runs in its own transaction together with its schema_migrations row.
// A nil logger runs silently.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	pending, err := loadMigrations(migrations, migrationsDir)
	if err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	ran := 0
	for _, m := range pending {
		if applied[m.version] {
			logger.Debugw("Ledger migration already applied", "migration", m.file)
			continue
		}
		logger.Infow("Applying ledger migration", "migration", m.file, "version", m.version)

		if err := applyMigration(db, m); err != nil {
			return err
		}
		ran++
	}

	logger.Infow("Ledger schema up to date", "applied", ran, "total_migrations", len(pending))
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}
