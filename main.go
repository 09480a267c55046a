package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/app"
	"github.com/RubachokBoss/classroom-service/internal/config"
	"github.com/RubachokBoss/classroom-service/internal/database"
	"github.com/RubachokBoss/classroom-service/pkg/logger"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	migrateDirection := migrateCmd.String("direction", "up", "direction of migration (up/down)")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			migrateCmd.Parse(os.Args[2:])
			direction := *migrateDirection
			if migrateCmd.NArg() > 0 {
				direction = migrateCmd.Arg(0)
			}
			runMigrations(direction)
			return
		}
	}

	bootLog := logger.New()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Application stopped with error")
	}
}

func runMigrations(direction string) {
	log := logger.New()
	if err := migrate(direction, log); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("Migration failed")
	}
}

func migrate(direction string, log zerolog.Logger) error {
	if direction != "up" && direction != "down" {
		return fmt.Errorf("invalid migration direction %q, use 'up' or 'down'", direction)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		return err
	}

	migrator, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		db.Close()
		return err
	}
	defer migrator.Close()

	if direction == "up" {
		err = migrator.Up()
	} else {
		err = migrator.Down()
	}
	if err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	log.Info().
		Str("direction", direction).
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Migrations applied successfully")
	return nil
}
