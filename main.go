package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodshare/recipe-store/recipestore"
	"github.com/foodshare/recipe-store/recipestore/database"
	"github.com/foodshare/recipe-store/recipestore/logger"
	"github.com/foodshare/recipe-store/recipestore/migration"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting RecipeStore",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	loadIngredients := flag.String("load-ingredients", "", "path to an ingredient fixture (.json or .csv) to load")
	importLegacy := flag.String("import-legacy", "", "directory with legacy BSON dumps to import")
	importBatch := flag.Int("import-batch", 1000, "batch size for legacy imports")
	importCopy := flag.Bool("import-copy", false, "use COPY for the ingredient catalog during legacy import")
	reset := flag.Bool("reset", false, "drop and recreate all application tables before anything else")
	flag.Parse()

	cfg, err := recipestore.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	// Longer timeout to cover connection plus initial schema setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if *reset {
		slog.Warn("Resetting application tables")
		if err := db.ResetAppTables(ctx); err != nil {
			slog.Error("Failed to reset tables", slog.String("error", err.Error()))
			os.Exit(-1)
		}
	}

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	if cfg.Seed.TagsPath != "" {
		loaded, err := db.LoadTags(ctx, cfg.Seed.TagsPath)
		if err != nil {
			slog.Error("Failed to load tag palette",
				slog.String("path", cfg.Seed.TagsPath),
				slog.String("error", err.Error()))
			os.Exit(-1)
		}
		slog.Info("Tag palette fixture loaded",
			slog.String("path", cfg.Seed.TagsPath),
			slog.Int("inserted", loaded))
	}

	fixturePath := *loadIngredients
	if fixturePath == "" {
		fixturePath = cfg.Seed.IngredientsPath
	}
	if fixturePath != "" {
		loaded, err := db.LoadIngredients(ctx, fixturePath)
		if err != nil {
			slog.Error("Failed to load ingredient fixture",
				slog.String("path", fixturePath),
				slog.String("error", err.Error()))
			os.Exit(-1)
		}
		slog.Info("Ingredient fixture loaded",
			slog.String("path", fixturePath),
			slog.Int("inserted", loaded))
	}

	if *importLegacy != "" {
		migrator := migration.NewMigrator(db.BunDB(), *importLegacy)
		migrator.SetBatchSize(*importBatch)
		if *importCopy {
			migrator.SetUseCopy(true)
			migrator.UsePool(db.GetPool())
		}
		if err := migrator.MigrateAll(ctx); err != nil {
			slog.Error("Legacy import failed", slog.String("error", err.Error()))
			os.Exit(-1)
		}
		return
	}

	slog.Info("RecipeStore ready, press Ctrl+C to exit")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-s
	slog.Info("Shutting down RecipeStore")
}
