package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venueflash/flashcore/flashcore"
	"github.com/venueflash/flashcore/flashcore/database"
	"github.com/venueflash/flashcore/flashcore/logger"
	"github.com/venueflash/flashcore/flashcore/migration"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting FlashCore claim daemon",
		slog.String("version", version),
		slog.String("commit", commit))

	importLegacy := flag.Bool("import-legacy", false, "Import offers and claims from the legacy MongoDB deployment")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := flashcore.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	if *importLegacy {
		if cfg.Mongo.URI == "" {
			slog.Error("Legacy import requested but [mongo] uri is not configured")
			os.Exit(-1)
		}
		migrator := migration.NewMigrator(db.BunDB(), cfg.Mongo.URI, cfg.Mongo.Database)
		importCtx, importCancel := context.WithTimeout(context.Background(), 30*time.Minute)
		stats, err := migrator.Run(importCtx)
		importCancel()
		if err != nil {
			slog.Error("Legacy import failed",
				slog.Any("error", err),
				slog.Int("offers_done", stats.Offers),
				slog.Int("claims_done", stats.Claims))
			db.Close()
			os.Exit(-1)
		}
	}

	app := flashcore.New(*cfg, version, commit)
	if err := app.Setup(db); err != nil {
		slog.Error("Failed to set up application",
			slog.String("type", "sys"),
			slog.Any("error", err))
		db.Close()
		os.Exit(-1)
	}

	app.StartBackground()

	slog.Info("FlashCore is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
	app.Shutdown(10 * time.Second)
}
