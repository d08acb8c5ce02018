package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/internal/seed"
	"github.com/levelupgamer/levelup_shop/pkg/config"
	pkgdb "github.com/levelupgamer/levelup_shop/pkg/db"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "seed")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := repo.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	sum, err := seed.Run(ctx, db)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d products, %d events, %d offers", sum.Products, sum.Events, sum.Offers)
	if sum.AdminCreated {
		log.Printf("admin created: %s / %s", seed.AdminUsername, seed.AdminPassword)
	}
}
