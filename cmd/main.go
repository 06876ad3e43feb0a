package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/config"
	"github.com/Danielkai0107/courtside/db"
	"github.com/Danielkai0107/courtside/handlers"
	"github.com/Danielkai0107/courtside/middleware"
	"github.com/Danielkai0107/courtside/notify"
	"github.com/Danielkai0107/courtside/repositories"
	api "github.com/Danielkai0107/courtside/routes"
	"github.com/Danielkai0107/courtside/services"
	"github.com/Danielkai0107/courtside/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database ready, migrations applied")

	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 not configured, logo uploads disabled")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPEnabled() {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
		logger.Info("SMTP notifier initialized", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP not configured, court call notifications disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	formatRepo := repositories.NewPostgresFormatRepository(dbConn)
	categoryRepo := repositories.NewPostgresCategoryRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)

	sportService := services.NewSportService(sportRepo, uploader, logger)
	formatService := services.NewFormatService(formatRepo)
	categoryService := services.NewCategoryService(dbConn, categoryRepo, entryRepo, matchRepo, sportRepo, formatRepo, playerRepo, logger)
	bracketService := services.NewBracketService(dbConn, categoryRepo, entryRepo, matchRepo, wsHub, logger)
	scoreService := services.NewScoreService(dbConn, categoryRepo, matchRepo, playerRepo, wsHub, notifier, logger)
	matchService := services.NewMatchService(matchRepo, courtRepo, logger)
	logger.Info("services initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	categoryHandler := handlers.NewCategoryHandler(categoryService, bracketService)
	matchHandler := handlers.NewMatchHandler(matchService, scoreService)
	sportHandler := handlers.NewSportHandler(sportService)
	formatHandler := handlers.NewFormatHandler(formatService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, categoryService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, categoryHandler, matchHandler, sportHandler, formatHandler, webSocketHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
