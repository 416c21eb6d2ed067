package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"puntoazul/internal/api"
	"puntoazul/internal/config"
	"puntoazul/internal/db"
	"puntoazul/internal/logger"
	"puntoazul/internal/repository"
	"puntoazul/internal/service"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := logger.New(false, "")
		fallback.Fatal("Failed to load config", zap.Error(err))
	}
	log, err := logger.Init(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// Credenciales: Redis si está configurado, memoria si no.
	credentialKey := cfg.CredentialKey
	if credentialKey == "" {
		credentialKey = cfg.JWTSecret
	}
	sealer := repository.NewSealer(credentialKey)
	var creds repository.CredentialProvider
	if cfg.RedisAddr != "" {
		redisCreds, err := repository.NewRedisCredentialProvider(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisAuthDB, sealer)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCreds.Close()
		creds = redisCreds
		log.Info("Credentials stored in Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		creds = repository.NewMemoryCredentialProvider(sealer)
		log.Info("Credentials stored in memory")
	}

	var history service.HistoryStore
	if cfg.HistoryEnabled() {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to DB", zap.Error(err))
		}
		defer conn.Close()
		history = repository.NewHistoryRepository(conn)
		log.Info("Save history enabled")
	}

	acfRepo := repository.NewACFRepository(cfg.WPAPIURL, cfg.ACFPageID, cfg.RequestTimeout)
	wpRepo := repository.NewWPAuthRepository(cfg.WPAPIURL, cfg.RequestTimeout)

	authSvc := service.NewAuthService(wpRepo, creds, cfg.JWTSecret, cfg.SessionTTL)
	venueSvc := service.NewVenueService(acfRepo, history)
	jobSvc := service.NewJobService(creds, venueSvc, history, cfg.SessionTTL,
		time.Duration(cfg.HistoryRetentionDays)*24*time.Hour)

	c := cron.New()
	c.AddFunc("@every 10m", func() {
		if err := jobSvc.PurgeExpiredSessions(context.Background()); err != nil {
			log.Error("Cron job failed", zap.String("job", "purge_sessions"), zap.Error(err))
		}
	})
	if history != nil {
		c.AddFunc("@daily", func() {
			if err := jobSvc.PruneHistory(context.Background()); err != nil {
				log.Error("Cron job failed", zap.String("job", "prune_history"), zap.Error(err))
			}
		})
	}
	c.Start()
	defer c.Stop()

	trusted, err := cfg.TrustedProxyNets()
	if err != nil {
		log.Fatal("Invalid proxy configuration", zap.Error(err))
	}
	router := api.NewRouter(api.RouterConfig{
		Auth:            authSvc,
		Venues:          venueSvc,
		LoginRatePerMin: cfg.LoginRatePerMin,
		TrustedProxies:  trusted,
	})
	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log)),
		handlers.PrintRecoveryStack(!cfg.IsProduction()),
	)(router))

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Server running", zap.String("port", cfg.AppPort), zap.String("backend", cfg.WPAPIURL))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
