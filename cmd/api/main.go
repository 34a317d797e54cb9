package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/molo/molo-go/internal/cache"
	"github.com/molo/molo-go/internal/config"
	"github.com/molo/molo-go/internal/crypto"
	"github.com/molo/molo-go/internal/events"
	"github.com/molo/molo-go/internal/handler"
	"github.com/molo/molo-go/internal/repository"
	"github.com/molo/molo-go/internal/router"
	"github.com/molo/molo-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	hasher, err := crypto.NewHasher(cfg.HashAlgorithm, cfg.BcryptCost)
	if err != nil {
		slog.Error("invalid hash configuration", "error", err)
		os.Exit(1)
	}

	var (
		credentials service.CredentialStore
		entries     service.EntryStore
		pinger      handler.Pinger
		db          *sql.DB
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		credentials = repository.NewMemoryCredentialRepository()
		entries = repository.NewMemoryEntryRepository()
	case config.StorageMySQL:
		db, err = repository.NewDB(cfg.DatabaseDSN)
		if err != nil {
			slog.Error("database open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := repository.Migrate(ctx, db)
			cancel()
			if err != nil {
				slog.Error("database migration failed", "error", err)
				os.Exit(1)
			}
		}

		credentials = repository.NewCredentialRepository(db)
		entries = repository.NewEntryRepository(db)
		pinger = db
	default:
		slog.Error("unknown storage driver", "driver", cfg.StorageDriver)
		os.Exit(1)
	}

	if cfg.Cache.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			slog.Warn("redis unavailable, entry cache disabled", "error", err)
		} else {
			defer rdb.Close()
			entries = cache.NewEntryStore(entries, rdb, cfg.Cache.TTL)
			slog.Info("entry cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		async := events.NewAsync(events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue), 256, 5*time.Second)
		defer async.Close()
		publisher = async
		slog.Info("audit events enabled", "queue", cfg.Events.Queue)
	}

	authService := service.NewAuthService(credentials, hasher, cfg.JWTSecret, cfg.JWTExpiry, publisher)
	entryService := service.NewEntryService(entries, publisher)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Auth:           authService,
			Entries:        entryService,
			DB:             pinger,
			CORSOrigins:    cfg.CORSOrigins,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
