package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date for local runs. SQLite databases
// are built from the gorm models; Postgres runs the goose migrations.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.FeatureFlags.UseSQLite {
		ctx = logg.WithField(ctx, "dialect", client.Dialect())
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AllowDevMigrations {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": EmbeddedDir})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
