package main

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/adapters/repositories"
	"delivery-dispatch-service/internal/adapters/seed"
	"delivery-dispatch-service/internal/config"
	"delivery-dispatch-service/internal/platform/db"
	"delivery-dispatch-service/internal/platform/logging"
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	schemaOnly := flag.Bool("schema-only", false, "create the schema without seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (using environment variables)")
	}

	log, err := logging.Setup(logging.Options{
		Level:  config.Get("LOG_LEVEL", "info"),
		Format: config.Get("LOG_FORMAT", "text"),
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := run(log, *schemaOnly); err != nil {
		log.Fatal(err)
	}
}

func run(log logrus.FieldLogger, schemaOnly bool) error {
	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/dataset.json")
	if schemaOnly {
		seedPath = ""
	}
	return initAndSeed(ctx, log, conn, seedPath)
}

func initAndSeed(ctx context.Context, log logrus.FieldLogger, conn *sql.DB, seedPath string) error {
	log.Info("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Info("Schema ready.")

	if seedPath == "" {
		return nil
	}

	ds, err := seed.Load(seedPath)
	if err != nil {
		return err
	}

	log.WithField("path", seedPath).Info("Seeding database...")
	if err := repositories.SeedFromDataset(ctx, conn, ds); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"shops":  len(ds.Shops),
		"staff":  len(ds.Staff),
		"zones":  len(ds.Zones),
		"routes": len(ds.Routes),
	}).Info("Seeding complete.")

	return nil
}
