package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userflow/internal/api"
	"userflow/internal/api/middleware"
	"userflow/internal/database"
	"userflow/pkg/factory"
	"userflow/pkg/tracing"
)

func main() {
	appFactory, err := factory.NewFactory()
	if err != nil {
		fmt.Printf("Factory oluşturulamadı: %v\n", err)
		os.Exit(1)
	}

	log := appFactory.GetLogger()
	cfg := appFactory.GetConfig()

	log.Info("Uygulama başlatılıyor", map[string]interface{}{"env": cfg.AppEnv})

	shutdownTracing, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal("Tracing başlatılamadı", map[string]interface{}{"error": err.Error()})
	}

	migrationService := database.NewMigrationService(appFactory.GetDB(), cfg.Database.Driver, log)
	if err := migrationService.RunMigrations(); err != nil {
		log.Fatal("Migrationlar uygulanamadı", map[string]interface{}{"error": err.Error()})
	}

	userHandler := api.NewUserHandler(appFactory.GetUserService(), log)
	roleHandler := api.NewRoleHandler(appFactory.GetRoleService(), log)
	auditLogHandler := api.NewAuditLogHandler(appFactory.GetAuditLogService(), log)
	eventHandler := api.NewEventHandler(appFactory.GetEventStoreService(), log)
	healthHandler := api.NewHealthHandler(appFactory, log)

	mux := http.NewServeMux()

	userHandler.RegisterRoutes(mux)
	roleHandler.RegisterRoutes(mux)
	auditLogHandler.RegisterRoutes(mux)
	eventHandler.RegisterRoutes(mux)

	if cacheInstance := appFactory.GetCache(); cacheInstance != nil {
		cacheHandler := api.NewCacheHandler(cacheInstance, appFactory.GetWarmUpManager(), log)
		cacheHandler.RegisterRoutes(mux)

		// The role registry is small and read often, prime it at boot.
		warmCtx, cancelWarm := context.WithTimeout(context.Background(), 10*time.Second)
		if err := appFactory.GetWarmUpManager().WarmUpRoles(warmCtx); err != nil {
			log.Warn("Rol cache warm-up başarısız", map[string]interface{}{"error": err.Error()})
		}
		cancelWarm()
	}

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	mux.HandleFunc("GET /health/live", healthHandler.LivenessCheck)
	mux.HandleFunc("GET /health/ready", healthHandler.ReadinessCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("UserFlow API'ye Hoş Geldiniz!"))
	})

	handler := middleware.TracingMiddleware(middleware.MetricsMiddleware(mux))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("HTTP sunucusu başlatılıyor", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP sunucusu başlatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Sunucu kapatılıyor...", map[string]interface{}{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Sunucu kapatılırken hata oluştu", map[string]interface{}{"error": err.Error()})
	}

	if err := appFactory.Close(); err != nil {
		log.Error("Kaynaklar kapatılırken hata oluştu", map[string]interface{}{"error": err.Error()})
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Error("Tracing kapatılamadı", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Sunucu başarıyla kapatıldı", map[string]interface{}{})
}
