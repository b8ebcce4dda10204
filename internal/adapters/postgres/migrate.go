package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const ledgerDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL
)`

type schemaMigration struct {
	Version   string    `gorm:"column:version;primaryKey"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// RunMigrations applies each embedded file at most once, in name order. A file and its
// ledger row commit together, so a failed file is retried whole on the next run.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	if err := db.WithContext(ctx).Exec(ledgerDDL).Error; err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}
	var done []string
	if err := db.WithContext(ctx).Model(&schemaMigration{}).Pluck("version", &done).Error; err != nil {
		return fmt.Errorf("read migration ledger: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	logger := slog.Default().With("module", "postgres", "layer", "adapter", "operation", "run_migrations")
	count := 0
	for _, file := range files {
		version := strings.TrimSuffix(path.Base(file), ".sql")
		if applied[version] {
			continue
		}
		raw, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for i, stmt := range splitStatements(string(raw)) {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
			}
			return tx.Create(&schemaMigration{Version: version, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		count++
		logger.InfoContext(ctx, "migration applied", "outcome", "success", "version", version)
	}
	logger.InfoContext(ctx, "schema up to date", "outcome", "success", "applied", count, "known", len(files))
	return nil
}

// splitStatements cuts a file at statement-terminating semicolons. The driver prepares one
// statement per Exec.
func splitStatements(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";\n") {
		stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
