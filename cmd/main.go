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

	"github.com/Dosada05/prediction-league/config"
	"github.com/Dosada05/prediction-league/db"
	"github.com/Dosada05/prediction-league/handlers"
	"github.com/Dosada05/prediction-league/live"
	"github.com/Dosada05/prediction-league/repositories"
	api "github.com/Dosada05/prediction-league/routes"
	"github.com/Dosada05/prediction-league/services"
	"github.com/Dosada05/prediction-league/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second // How often the scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2Bucket,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	predictionRepo := repositories.NewPostgresPredictionRepository(dbConn)
	bonusQuestionRepo := repositories.NewPostgresBonusQuestionRepository(dbConn)
	bonusPredictionRepo := repositories.NewPostgresBonusPredictionRepository(dbConn)
	standingRepo := repositories.NewPostgresLeagueStandingRepository(dbConn)
	transactor := repositories.NewSQLTransactor(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	leagueLocks := services.NewLeagueLocker()
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, emailService, cfg.JWTSecretKey, logger)
	userService := services.NewUserService(userRepo, cloudflareUploader, logger)
	teamService := services.NewTeamService(teamRepo, cloudflareUploader, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, logger)

	scoringService := services.NewScoringService(
		transactor,
		matchRepo,
		predictionRepo,
		bonusQuestionRepo,
		bonusPredictionRepo,
		leagueRepo,
		standingRepo,
		leagueLocks,
		logger,
	)
	leagueService := services.NewLeagueService(
		transactor,
		leagueRepo,
		tournamentRepo,
		predictionRepo,
		bonusPredictionRepo,
		standingRepo,
		scoringService,
		emailService,
		cloudflareUploader,
		leagueLocks,
		logger,
	)
	matchService := services.NewMatchService(
		matchRepo,
		teamRepo,
		tournamentRepo,
		scoringService,
		wsHub,
		logger,
	)
	predictionService := services.NewPredictionService(predictionRepo, matchRepo, leagueRepo)
	bonusService := services.NewBonusService(
		bonusQuestionRepo,
		bonusPredictionRepo,
		leagueRepo,
		tournamentRepo,
		scoringService,
		wsHub,
		logger,
	)
	standingsService := services.NewStandingsService(leagueRepo, standingRepo)
	logger.Info("Services initialized")

	// Запуск планировщика автоматического обновления статусов турниров
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Tournament status update scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := tournamentService.AutoUpdateTournamentStatusesByDates(context.Background()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := tournamentService.AutoUpdateTournamentStatusesByDates(context.Background()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	routeHandlers := api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		User:       handlers.NewUserHandler(userService),
		Team:       handlers.NewTeamHandler(teamService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Match:      handlers.NewMatchHandler(matchService),
		League:     handlers.NewLeagueHandler(leagueService, standingsService, scoringService),
		Prediction: handlers.NewPredictionHandler(predictionService),
		Bonus:      handlers.NewBonusHandler(bonusService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, routeHandlers, cfg.JWTSecretKey)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
