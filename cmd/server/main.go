package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/levelupgamer/levelup_shop/internal/httpserver"
	"github.com/levelupgamer/levelup_shop/internal/referral"
	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/internal/search"
	"github.com/levelupgamer/levelup_shop/internal/service"
	"github.com/levelupgamer/levelup_shop/pkg/config"
	pkgdb "github.com/levelupgamer/levelup_shop/pkg/db"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
	loggingmw "github.com/levelupgamer/levelup_shop/pkg/middleware/logging"
	"github.com/levelupgamer/levelup_shop/pkg/mykafka"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	policy, err := service.ParseStatusPolicy(cfg.OrderStatusPolicy)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	r := &repo.GormRepo{DB: db}

	var events mykafka.Publisher = mykafka.Noop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka disabled", "reason", "KAFKA_BROKERS is empty")
	}

	authSvc := &service.AuthService{
		Repo:                 r,
		JWTSecret:            cfg.JWTSecret,
		InstitutionalDomains: cfg.InstitutionalDomains,
		Events:               events,
	}
	catalogSvc := &service.CatalogService{Repo: r, Events: events}
	orderSvc := &service.OrderService{Repo: r, Events: events, Policy: policy}
	promoSvc := &service.PromoService{Repo: r, ExclusiveActive: cfg.ExclusiveActiveOffers}

	deps := &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
		PromoHandler:   &httpserver.PromoHTTP{Svc: promoSvc},
		JWTSecret:      cfg.JWTSecret,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		idx := search.NewIndex(es, cfg.ESIndex)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := idx.EnsureIndex(ctx); err != nil {
			cancel()
			log.Fatalf("elasticsearch: %v", err)
		}
		catalogSvc.Indexer = idx
		orderSvc.Indexer = idx
		n, err := catalogSvc.Reindex(ctx)
		cancel()
		if err != nil {
			logger.Warn("reindex failed", "indexed", n, "error", err)
		} else {
			logger.Info("catalog indexed", "products", n)
		}
		deps.SearchHandler = &httpserver.SearchHTTP{Index: idx}
	}

	var graph *referral.Graph
	if cfg.GraphURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := referral.NewNeo4jClient(ctx, referral.Options{
			URI:      cfg.GraphURI,
			Database: cfg.GraphDatabase,
			Username: cfg.GraphUsername,
			Password: cfg.GraphPassword,
		})
		if err != nil {
			cancel()
			log.Fatalf("graph: %v", err)
		}
		graph = referral.NewGraph(client)
		if err := graph.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("graph schema: %v", err)
		}
		cancel()
		authSvc.Graph = graph
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomw.Secure())

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if graph != nil {
		if err := graph.Close(shutdownCtx); err != nil {
			logger.Error("graph close", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("shutdown complete")
}
