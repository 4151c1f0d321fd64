// Applies the SQL files under migrations/ in version order, exactly once each.
// Applied versions are recorded in schema_migrations together with a content
// checksum, so an edited historical migration fails loudly instead of silently
// diverging between environments. "migrate status" lists applied and pending
// files without changing anything.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const migrationsDir = "migrations"

// Advisory lock key shared by every deployment of this app's migrator.
const migrationLockKey = 7420114

type migration struct {
	version  string
	filename string
	checksum string
	sql      string
}

func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("Failed to create pool: %v", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	m := &migrator{pool: pool}

	if len(os.Args) > 1 && os.Args[1] == "status" {
		if err := m.status(ctx); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
		return
	}

	if err := m.run(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

type migrator struct {
	pool *pgxpool.Pool
}

func (m *migrator) run(ctx context.Context) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	// One migrator at a time. A second invocation fails fast instead of
	// queueing behind the first.
	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another migrator is already running")
	}
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockKey)

	if err := m.ensureLedger(ctx); err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, mig := range migrations {
		ran, err := m.apply(ctx, mig)
		if err != nil {
			return err
		}
		if ran {
			applied++
		}
	}
	log.Printf("Migrations complete: %d applied, %d already up to date", applied, len(migrations)-applied)
	return nil
}

func (m *migrator) ensureLedger(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// loadMigrations reads every .sql file under migrations/, rejecting duplicate
// version prefixes, and returns them sorted by version.
func loadMigrations() ([]migration, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", migrationsDir, err)
	}

	seen := make(map[string]string)
	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, _, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s does not match NNN_description.sql", entry.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("version %s appears twice: %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(body)
		migrations = append(migrations, migration{
			version:  version,
			filename: entry.Name(),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

// apply runs one migration inside a transaction and records it in the ledger.
// Returns false when the version is already applied with a matching checksum.
func (m *migrator) apply(ctx context.Context, mig migration) (bool, error) {
	var recorded string
	err := m.pool.QueryRow(ctx,
		"SELECT checksum FROM schema_migrations WHERE version = $1", mig.version).Scan(&recorded)
	switch {
	case err == nil:
		if recorded != mig.checksum {
			return false, fmt.Errorf("%s was edited after being applied (checksum %s, recorded %s)",
				mig.filename, mig.checksum, recorded)
		}
		return false, nil
	case err == pgx.ErrNoRows:
		// Not applied yet.
	default:
		return false, fmt.Errorf("failed to check %s: %w", mig.filename, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for %s: %w", mig.filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.sql); err != nil {
		return false, fmt.Errorf("failed to apply %s: %w", mig.filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		mig.version, mig.filename, mig.checksum); err != nil {
		return false, fmt.Errorf("failed to record %s: %w", mig.filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit %s: %w", mig.filename, err)
	}

	log.Printf("Applied %s", mig.filename)
	return true, nil
}

func (m *migrator) status(ctx context.Context) error {
	if err := m.ensureLedger(ctx); err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := make(map[string]time.Time)
	rows, err := m.pool.Query(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return fmt.Errorf("failed to scan schema_migrations row: %w", err)
		}
		applied[version] = at
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, mig := range migrations {
		if at, ok := applied[mig.version]; ok {
			fmt.Printf("%-40s applied %s\n", mig.filename, at.Format(time.RFC3339))
		} else {
			fmt.Printf("%-40s pending\n", mig.filename)
		}
	}
	return nil
}
