// cmd/seeduser/main.go: creates or updates the initial admin user.
// Usage: go run ./cmd/seeduser -email admin@pastel24h.com.br -password segredo
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"pastel24h/internal/config"
	"pastel24h/internal/infra"
	"pastel24h/internal/model"
	"pastel24h/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@pastel24h.com.br", "login e-mail")
	password := flag.String("password", "", "password (min 6 chars)")
	name := flag.String("name", "Administrador", "display name")
	role := flag.String("role", model.RoleAdmin, "employee | admin")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal().Msg("-password must have at least 6 characters")
	}
	if *role != model.RoleAdmin && *role != model.RoleEmployee {
		log.Fatal().Str("role", *role).Msg("invalid role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: hash,
		Name:         *name,
		Role:         *role,
	}
	err = db.WithContext(context.Background()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "name", "role", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		log.Fatal().Err(err).Msg("upsert user")
	}
	log.Info().Str("email", user.Email).Str("role", user.Role).Msg("user created/updated")
}
