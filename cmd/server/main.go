package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"pastel24h/internal/config"
	"pastel24h/internal/infra"
	"pastel24h/internal/repository"
	"pastel24h/internal/router"
	"pastel24h/internal/service"
	"pastel24h/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	rules, err := service.ShiftRulesFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid shift rules")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	var store infra.ObjectStore
	s3Store, err := infra.NewS3Store(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure object storage")
	}
	if s3Store != nil {
		store = infra.GuardStore(s3Store, infra.NewBreaker(infra.BreakerConfigFrom(cfg, "report-storage")))
	}

	dispatcher := worker.NewDispatcher(rdb)
	reportRepo := repository.NewWeeklyReportRepository(db)

	handlers := &worker.WorkerHandlers{
		ReportPDF: worker.NewReportPDFWorker(reportRepo, store, dispatcher, cfg.ReportStoragePath, cfg.ReportEmailTo),
	}
	if mailer := infra.NewMailer(cfg); mailer.Configured() {
		smtpBreaker := infra.NewBreaker(infra.BreakerConfigFrom(cfg, "smtp"))
		handlers.Email = worker.NewEmailWorker(mailer, smtpBreaker)
	} else {
		log.Warn().Msg("SMTP_HOST not set: report emails disabled")
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	worker.StartPDFSweep(ctx, worker.PDFSweepConfig{Reports: reportRepo, Dispatcher: dispatcher})

	r := router.New(cfg, db, rdb, rules)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("pastel24h backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
