package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	"github.com/angelmondragon/tableorder-backend/internal/stores"
	"github.com/angelmondragon/tableorder-backend/internal/tables"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/migrate"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

const tempPasswordLen = 6

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	name := flag.String("store", "Demo Store", "store display name")
	username := flag.String("admin", "admin", "admin username")
	password := flag.String("password", "", "admin password (min 8 chars)")
	tableCount := flag.Int("tables", 10, "number of tables to create")
	tablePassword := flag.String("table-password", "", "password shared by seeded tables; random per table when empty")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	requireResource(logg, "schema", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	gdb := dbClient.DB()
	storeService, err := stores.NewService(stores.NewRepository(gdb), cfg.Password)
	requireResource(logg, "store service", err)

	// Nobody is listening during a seed; the hub only satisfies the manager.
	sessionManager, err := sessions.NewManager(sessions.ManagerParams{
		Repo:      sessions.NewRepository(gdb),
		Tx:        dbClient,
		Publisher: broadcast.NewHub(broadcast.Options{Logger: logg}),
		Password:  cfg.Password,
		Logger:    logg,
	})
	requireResource(logg, "session manager", err)

	tableService, err := tables.NewService(tables.NewRepository(gdb), sessionManager, cfg.Password)
	requireResource(logg, "table service", err)

	store, err := storeService.Create(ctx, stores.CreateStoreInput{
		Name:          *name,
		AdminUsername: *username,
		AdminPassword: *password,
	})
	requireResource(logg, "create store", err)

	ctx = logg.WithStoreID(ctx, store.ID.String())
	for number := 1; number <= *tableCount; number++ {
		pw := *tablePassword
		if pw == "" {
			pw, err = security.GenerateTempPassword(tempPasswordLen)
			requireResource(logg, "generate table password", err)
			fmt.Printf("table %d password: %s\n", number, pw)
		}
		if _, err := tableService.Create(ctx, tables.CreateTableInput{
			StoreID:     store.ID,
			TableNumber: number,
			Password:    pw,
		}); err != nil {
			requireResource(logg, fmt.Sprintf("create table %d", number), err)
		}
	}

	logg.Info(logg.WithField(ctx, "tables", *tableCount), "seed completed")
	fmt.Printf("store_id=%s admin=%s tables=%d\n", store.ID, store.AdminUsername, *tableCount)
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("seed step failed: %s", resource), err)
	os.Exit(1)
}
