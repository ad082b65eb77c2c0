package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"postboard/internal/middleware"

	"gorm.io/gorm"
)

// MigrationStore records which SQL migrations have run.
type MigrationStore interface {
	AppliedVersions(ctx context.Context) ([]int, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

// SchemaMigration is one row of the applied-migrations ledger.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

const createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type migrationStore struct {
	db *gorm.DB
}

// NewMigrationStore returns a MigrationStore backed by the schema_migrations table.
func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

// AppliedVersions lists applied versions in ascending order. A database that
// has never been migrated has none.
func (s *migrationStore) AppliedVersions(ctx context.Context) ([]int, error) {
	var versions []int
	err := s.db.WithContext(ctx).Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error
	switch {
	case err == nil:
		return versions, nil
	case errors.Is(err, gorm.ErrRecordNotFound), isMissingTableError(err):
		return []int{}, nil
	default:
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

func (s *migrationStore) Apply(ctx context.Context, m Migration) error {
	return s.execAndRecord(ctx, m.UpScript, func(tx *gorm.DB) error {
		return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name}).Error
	})
}

func (s *migrationStore) Revert(ctx context.Context, m Migration) error {
	return s.execAndRecord(ctx, m.DownScript, func(tx *gorm.DB) error {
		return tx.Where("version = ?", m.Version).Delete(&SchemaMigration{}).Error
	})
}

// execAndRecord runs script and the ledger update in one transaction.
func (s *migrationStore) execAndRecord(ctx context.Context, script string, record func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(script).Error; err != nil {
			return err
		}
		return record(tx)
	})
}

// RunMigrations applies every embedded migration that has not run yet.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	if err := db.WithContext(ctx).Exec(createLedgerSQL).Error; err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if unknown := unknownVersions(applied, registered); len(unknown) > 0 {
		return fmt.Errorf("schema_migrations has versions this build does not know: %s", formatVersions(unknown))
	}

	todo := pending(applied, registered)
	if len(todo) == 0 {
		middleware.Logger.Debug("Schema is up to date", slog.Int("applied", len(applied)))
		return nil
	}

	for _, m := range todo {
		if err := store.Apply(ctx, m); err != nil {
			return fmt.Errorf("migration %06d_%s: %w", m.Version, m.Name, err)
		}
		middleware.Logger.Info("Migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
	}
	return nil
}

// pending returns the registered migrations missing from applied, in order.
func pending(applied []int, registered []Migration) []Migration {
	var out []Migration
	for _, m := range registered {
		if !slices.Contains(applied, m.Version) {
			out = append(out, m)
		}
	}
	return out
}

// unknownVersions returns applied versions with no registered migration.
func unknownVersions(applied []int, registered []Migration) []int {
	var out []int
	for _, v := range applied {
		known := slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == v })
		if !known {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func formatVersions(versions []int) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = fmt.Sprintf("%06d", v)
	}
	return strings.Join(parts, ", ")
}

// RollbackMigration runs the down script of an applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	return rollback(ctx, db, *m)
}

func rollback(ctx context.Context, db *gorm.DB, m Migration) error {
	store := NewMigrationStore(db)
	applied, err := store.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, m.Version) {
		return fmt.Errorf("migration %d has not been applied", m.Version)
	}

	if err := store.Revert(ctx, m); err != nil {
		return fmt.Errorf("rollback %06d_%s: %w", m.Version, m.Name, err)
	}
	middleware.Logger.Info("Migration rolled back", slog.Int("version", m.Version), slog.String("name", m.Name))
	return nil
}
