package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/internal/service"
	"github.com/levelupgamer/levelup_shop/pkg/config"
	pkgdb "github.com/levelupgamer/levelup_shop/pkg/db"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: promote-admin <email>")
		os.Exit(2)
	}
	email := os.Args[1]

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	svc := &service.AuthService{Repo: &repo.GormRepo{DB: db}}
	if err := svc.PromoteToAdmin(ctx, email); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			log.Fatalf("no user with email %s", email)
		}
		log.Fatalf("promote: %v", err)
	}
	log.Printf("%s is now an admin", email)
}
