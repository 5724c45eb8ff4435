package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bookyourshoot/backend/internal/config"
	"github.com/bookyourshoot/backend/internal/db"
	"github.com/bookyourshoot/backend/internal/goroutine"
	httpHandlers "github.com/bookyourshoot/backend/internal/http/handlers"
	httpRouter "github.com/bookyourshoot/backend/internal/http/router"
	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/logger"
	"github.com/bookyourshoot/backend/internal/repository"
	"github.com/bookyourshoot/backend/internal/service"
	"github.com/bookyourshoot/backend/internal/storage"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.EvidenceStoragePath)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	payoutRepo := repository.NewPayoutRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	escrowService := service.NewEscrowService(escrowRepo, cfg.DefaultHoldPeriod, cfg.PlatformFeeRate)
	disputeService := service.NewDisputeService(disputeRepo, escrowRepo, evidenceStorage, ledger.ReinstatePolicy(cfg.ReinstatePolicy))
	payoutService := service.NewPayoutService(payoutRepo)

	// Авторелиз платежей с истёкшим периодом удержания.
	poller := service.NewReleasePoller(escrowService, cfg.ReleasePollInterval, cfg.ReleaseBatchSize)
	goroutine.SafeGoWithContext(ctx, poller.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	paymentHandler := httpHandlers.NewPaymentHandler(escrowService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	payoutHandler := httpHandlers.NewPayoutHandler(payoutService)
	wsHandler := httpHandlers.NewWSHandler(escrowService, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, paymentHandler, disputeHandler, payoutHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
