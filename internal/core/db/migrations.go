package db

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bkarjoo/fastgtd-sub000/migrations"
)

// migration is one parsed migration file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// MigrationStatus reports one migration's applied state.
type MigrationStatus struct {
	ID        string
	Checksum  string
	Applied   bool
	AppliedAt *time.Time
}

// MigrateUp applies all pending migrations for the connected driver.
// Already-applied migrations are checksum-verified first, so a modified
// migration file fails loudly instead of silently diverging schemas.
func MigrateUp(db *sqlx.DB) error {
	pending, err := loadMigrations(db)
	if err != nil {
		return err
	}

	applied, err := appliedChecksums(db)
	if err != nil {
		return err
	}

	for _, m := range pending {
		got, ok := applied[m.ID]
		if ok {
			if got != m.Checksum {
				return fmt.Errorf("checksum mismatch for migration %s: file changed after being applied", m.ID)
			}
			continue
		}
		if err := runMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus reports applied and pending migrations in order.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	pending, err := loadMigrations(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Queryx("SELECT migration_id, checksum, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	appliedAt := make(map[string]time.Time)
	for rows.Next() {
		var id, checksum string
		var at time.Time
		if err := rows.Scan(&id, &checksum, &at); err != nil {
			return nil, err
		}
		appliedAt[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(pending))
	for _, m := range pending {
		st := MigrationStatus{ID: m.ID, Checksum: m.Checksum}
		if at, ok := appliedAt[m.ID]; ok {
			st.Applied = true
			st.AppliedAt = &at
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// loadMigrations selects the driver's embedded migration set, parses it,
// and ensures the tracking table exists.
func loadMigrations(db *sqlx.DB) ([]migration, error) {
	var fsys embed.FS
	var dir string
	switch db.DriverName() {
	case "sqlite3":
		fsys, dir = migrations.Sqlite, "sqlite"
	case "postgres":
		fsys, dir = migrations.Postgres, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var out []migration
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		out = append(out, migration{
			ID:       filepath.Base(path),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}

	// Filename ordering is execution ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func appliedChecksums(db *sqlx.DB) (map[string]string, error) {
	rows, err := db.Queryx("SELECT migration_id, checksum FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, checksum string
		if err := rows.Scan(&id, &checksum); err != nil {
			return nil, err
		}
		out[id] = checksum
	}
	return out, rows.Err()
}

// runMigration executes one migration and records it in the same
// transaction so a failed record never leaves half-applied state.
func runMigration(db *sqlx.DB, m migration) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", m.ID, err)
	}

	// lib/pq rejects multiple statements per Exec; split on semicolons.
	for _, stmt := range strings.Split(m.SQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
	}

	insert := tx.Rebind("INSERT INTO schema_migrations (migration_id, checksum, applied_at) VALUES (?, ?, ?)")
	if _, err := tx.Exec(insert, m.ID, m.Checksum, time.Now().UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.ID, err)
	}
	return nil
}
