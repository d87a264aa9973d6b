package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MediCart/internal/catalog"
	"MediCart/internal/config"
	"MediCart/internal/identity"
	"MediCart/internal/orders"
	"MediCart/internal/session"
	"MediCart/internal/storage"
	"MediCart/internal/storefront"
	"MediCart/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.App.Environment)
	defer func() { _ = log.Sync() }()

	if len(cfg.Session.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	kv, err := buildStorage(cfg)
	if err != nil {
		log.Fatal("init storage failed", zap.Error(err),
			zap.String("backend", cfg.Storage.Backend))
	}
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	reg := prometheus.NewRegistry()

	mgr := storefront.NewManager(kv, log, session.NewMetrics(reg), cfg.Session.IdleTTL)
	defer mgr.Close()

	h := storefront.NewHandler(
		storefront.Deps{
			Manager:        mgr,
			JWT:            identity.NewTokenMaker(cfg.Session.JWTSecret),
			Catalog:        catalog.NewClient(cfg.Upstream.CatalogURL),
			Orders:         orders.NewClient(cfg.Upstream.OrderURL),
			KV:             kv,
			CookieName:     cfg.Session.CookieName,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			LoginPerMinute: cfg.Session.LoginPerMinute,
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)

	if err := kit.RunHTTPServer(cfg.Server.Address(), h, log, cfg.Server.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStorage(cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemKV(), nil

	case "redis":
		kv := storage.NewRedisKV(storage.RedisConfig{
			Addr:     cfg.Storage.RedisAddress(),
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv, nil

	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
		db, err := sql.Open("pgx", cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		kv := storage.NewPostgresKV(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return kv, nil

	case "sqlite":
		return storage.NewSQLiteKV(cfg.Storage.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
