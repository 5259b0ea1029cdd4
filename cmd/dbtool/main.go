package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"inspection-route-service/internal/adapters/repositories"
	"inspection-route-service/internal/config"
	"inspection-route-service/internal/platform/db"
	"inspection-route-service/internal/platform/obs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	seedPath := flag.String("seed", "", "station seed JSON (defaults to catalog.seed_path)")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("INSPECTOR_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}
	logger := obs.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Debug().Msg("no .env file found (using environment variables)")
	}

	if cfg.Database.URL == "" {
		logger.Fatal().Msg("database.url is required (INSPECTOR_DATABASE_URL)")
	}

	ctx := logger.WithContext(context.Background())

	conn, err := db.Open(ctx, cfg.Database.URL, cfg.PoolOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	path := *seedPath
	if path == "" {
		path = cfg.Catalog.SeedPath
	}
	if *schemaOnly {
		path = ""
	}

	if err := initAndSeed(ctx, conn, path); err != nil {
		logger.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	logger := zerolog.Ctx(ctx)

	logger.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization: %w", err)
	}
	logger.Info().Msg("schema ready")

	if seedPath == "" {
		return nil
	}

	logger.Info().Str("path", seedPath).Msg("seeding stations")
	n, err := repositories.SeedFromJSON(ctx, conn, seedPath)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	logger.Info().Int("stations", n).Msg("seeding complete")

	return nil
}
