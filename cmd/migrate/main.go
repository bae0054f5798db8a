package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// create and validate only touch files.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok:", opts.dir)
		return nil
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd})

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	// SQLite has no goose history; its schema comes from the models.
	if cfg.FeatureFlags.UseSQLite {
		if opts.cmd != "up" {
			return errors.New("sqlite only supports -cmd=up")
		}
		if err := dbClient.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		logg.Info(ctx, "sqlite schema migrated")
		return nil
	}

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return err
	}
	if opts.cmd == "version" {
		if opts.version == "" {
			return errors.New("-version is required")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate finished")
	return nil
}
