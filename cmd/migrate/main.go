// cmd/migrate/main.go: applies the SQL migrations in MIGRATIONS_DIR.
// Usage: go run ./cmd/migrate [up|down|version|steps N]
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"pastel24h/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open postgres")
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create postgres driver")
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsDir, "postgres", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrate instance")
	}

	if err := run(m, cmd, os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("failed to read migration version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations done")
}

func run(m *migrate.Migrate, cmd string, args []string) error {
	var err error
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(args) != 1 {
			return fmt.Errorf("usage: migrate steps N")
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return fmt.Errorf("steps: %w", convErr)
		}
		err = m.Steps(n)
	case "version":
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("no migrations to apply")
		return nil
	}
	return err
}
