package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where `cmd/migrate create` writes new files.
const DefaultDir = "pkg/migrate/migrations"

// EmbeddedDir is the path of the migrations inside Files.
const EmbeddedDir = "migrations"

// Files carries the migrations compiled into every binary.
//
//go:embed migrations/*.sql
var Files embed.FS

func setup() error {
	goose.SetBaseFS(Files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := setup(); err != nil {
		return err
	}
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, EmbeddedDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up or down to the requested version.
func MigrateToVersion(ctx context.Context, db *sql.DB, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	if err := setup(); err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
