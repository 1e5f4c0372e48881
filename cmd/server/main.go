package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/api"
	"autofutures/internal/bot"
	"autofutures/internal/config"
	"autofutures/internal/exchange"
	"autofutures/internal/repository"
	"autofutures/internal/websocket"
	"autofutures/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database",
			zap.String("dsn", cfg.Database.DSNWithoutPassword()),
			zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database",
		zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	settingsRepo := repository.NewSettingsRepository(db)
	stateRepo := repository.NewStateRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	logRepo := repository.NewBotLogRepository(db)

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Пул биржевых клиентов. В демо-режиме все клиенты - эмуляторы;
	// без подключенной коннективности циклы работают на синтетических
	// котировках и не торгуют
	factory := exchange.LiveFactory()
	if cfg.Bot.DemoMode {
		logger.Warn("demo mode enabled, all exchange clients are simulated")
		factory = exchange.SimFactory()
	}
	gatewayPool := exchange.NewPool(factory)

	// Торговое ядро
	workers := bot.NewWorkerPool(cfg.Bot.WorkerPoolSize)
	publisher := bot.NewStatePublisher(stateRepo, hub, logger)
	supervisor := bot.NewSupervisor(
		cfg.Bot,
		settingsRepo,
		positionRepo,
		logRepo,
		gatewayPool,
		workers,
		publisher,
		hub,
		logger,
	)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		Controller: supervisor,
		Settings:   settingsRepo,
		Logs:       logRepo,
		Hub:        hub,
		Logger:     logger,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Сначала останавливаем торговые циклы, чтобы не оборвать ордер
	supervisor.Shutdown(ctx)

	// Закрываем соединения с биржами
	if err := gatewayPool.Close(); err != nil {
		logger.Error("error closing exchange connections", zap.Error(err))
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
