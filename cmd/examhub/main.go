package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"examhub/internal/auth"
	"examhub/internal/catalog"
	"examhub/internal/config"
	"examhub/internal/db"
	"examhub/internal/exams"
	"examhub/internal/httpserver"
	"examhub/internal/logging"
	"examhub/internal/web"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userStore := auth.NewStore(dbConn)
	if err := userStore.SeedFromFile(ctx, cfg.UsersPath); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	catalogStore := catalog.NewStore(dbConn)
	examStore := exams.NewStore(dbConn)
	auditStore := auth.NewAuditStore(dbConn, logger)

	validator := auth.Validator{Domain: cfg.EmailDomain}
	authSvc := auth.NewService(userStore, auditStore, validator, catalogStore, logger, cfg.Debug)
	sessions := auth.NewSessionManager(cfg.SessionSecret)
	verifier := auth.NewVerifier(cfg.SessionSecret)

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		log.Fatalf("load templates: %v", err)
	}

	uploader := &exams.Uploader{
		Dir:      cfg.UploadDir,
		MaxBytes: int64(cfg.MaxUploadMB) << 20,
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:   logger,
		Render:   renderer,
		Sessions: sessions,
		Auth:     authSvc,
		Users:    userStore,
		Audit:    auditStore,
		Verifier: verifier,
		Catalog:  catalogStore,
		Exams:    examStore,
		Uploader: uploader,
		Debug:    cfg.Debug,
	})
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(runCtx); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
