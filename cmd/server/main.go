package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cold-backend/internal/auth"
	"cold-backend/internal/cache"
	"cold-backend/internal/config"
	"cold-backend/internal/database"
	"cold-backend/internal/db"
	h "cold-backend/internal/http"
	"cold-backend/internal/handlers"
	"cold-backend/internal/health"
	"cold-backend/internal/importer"
	"cold-backend/internal/middleware"
	"cold-backend/internal/notifier"
	"cold-backend/internal/orders"
	"cold-backend/internal/picking"
	"cold-backend/internal/repositories"
	"cold-backend/internal/services"
	"cold-backend/internal/stock"
	"cold-backend/internal/upstream"
	"cold-backend/pkg/utils"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.NewMigrator(pool).RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("migrations failed: %v", err)
	}
	cancel()

	if err := cache.Init(cfg); err != nil {
		log.Printf("[Redis] cache unavailable, continuing without it: %v", err)
	}

	// Repositories
	productRepo := repositories.NewProductRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)
	lineRepo := repositories.NewOrderLineRepository(pool)
	pickEventRepo := repositories.NewPickEventRepository(pool)
	exceptionRepo := repositories.NewStockExceptionRepository(pool)
	syncLogRepo := repositories.NewSyncLogRepository(pool)
	configRepo := repositories.NewConfigRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	authLogRepo := repositories.NewAuthLogRepository(pool)

	// Auth
	jwtManager := auth.NewJWTManager(cfg)
	userService := services.NewUserService(userRepo, jwtManager)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	// Domain engines
	machine := orders.NewMachine(pool, orderRepo, lineRepo)
	exceptions := stock.NewExceptions(pool, exceptionRepo)
	pickingEngine := picking.NewEngine(pool, productRepo, orderRepo, lineRepo, pickEventRepo, machine, exceptions)

	upstreamClient := upstream.NewClient(cfg.Upstream.APIBaseURL, cfg.Upstream.APIKey, cfg.Upstream.FetchTimeout)
	importerService := importer.NewService(pool, upstreamClient, productRepo, orderRepo, lineRepo, syncLogRepo, configRepo, machine)

	notifierService := notifier.New(configRepo, notifier.SMTPSender{}, notifier.NewFast2SMSSender())

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, authLogRepo)
	userHandler := handlers.NewUserHandler(userService)
	pickingHandler := handlers.NewPickingHandler(pickingEngine)
	ordersHandler := handlers.NewOrdersHandler(machine, orderRepo)
	stockHandler := handlers.NewStockExceptionHandler(exceptions, notifierService)
	adminHandler := handlers.NewAdminHandler(importerService, syncLogRepo, configRepo)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	router := h.NewRouter(authHandler, userHandler, pickingHandler, ordersHandler, stockHandler, adminHandler, healthHandler, authMiddleware)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	syncCtx, stopSync := context.WithCancel(context.Background())
	go runSyncScheduler(syncCtx, importerService, configRepo)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      http.TimeoutHandler(handler, cfg.Upstream.RequestDeadline, `{"code":"Internal","message":"request timed out"}`),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopSync()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// runSyncScheduler ticks the import/reconciliation pass on APIConfig's configured
// interval. A SyncBusy error just means an operator trigger or another tick is already
// running the walk; it is not logged as a failure.
func runSyncScheduler(ctx context.Context, importerService *importer.Service, configRepo *repositories.ConfigRepository) {
	interval := 15 * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			apiCfg, err := configRepo.GetAPIConfig(ctx)
			if err != nil {
				log.Printf("[Sync] could not read api config: %v", err)
				continue
			}
			if !apiCfg.AutoSyncEnabled {
				continue
			}
			if want := time.Duration(apiCfg.SyncIntervalMin) * time.Minute; want > 0 && want != interval {
				interval = want
				ticker.Reset(interval)
			}

			if _, err := importerService.Sync(ctx); err != nil {
				var apiErr *utils.APIError
				if errors.As(err, &apiErr) && apiErr.Kind == utils.SyncBusy {
					continue
				}
				log.Printf("[Sync] scheduled sync failed: %v", err)
			}
		}
	}
}
