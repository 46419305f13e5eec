package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	polymarketgamma "polywatch/internal/client/polymarket/gamma"
	"polywatch/internal/config"
	cronrunner "polywatch/internal/cron"
	"polywatch/internal/db"
	"polywatch/internal/handler"
	"polywatch/internal/logger"
	gormrepository "polywatch/internal/repository/gorm"
	"polywatch/internal/service"
)

func main() {
	cfgPath := os.Getenv("PW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	gammaHTTP := &http.Client{Timeout: cfg.Gamma.Timeout}
	gammaClient := polymarketgamma.NewClientWithHost(gammaHTTP, cfg.Gamma.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	catalogService := &service.CatalogSyncService{
		Repo:   store,
		Gamma:  gammaClient,
		Logger: logger,
	}
	resolutionService := &service.ResolutionSyncService{
		Repo:   store,
		Gamma:  gammaClient,
		Config: cfg.ResolutionSync,
		Logger: logger,
	}
	watchService := &service.WatchService{
		Repo:   store,
		Config: cfg.Watch,
		Logger: logger,
	}
	scanService := &service.ReferenceScanService{
		Repo:   store,
		Config: cfg.ReferenceScan,
		Logger: logger,
	}
	ringService := &service.RingService{
		Repo:   store,
		Config: cfg.Ring,
		Logger: logger,
	}
	streamService := &service.TradeStreamService{Repo: store, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	watchHandler := &handler.WatchHandler{Repo: store, Watch: watchService}
	watchHandler.Register(engine)
	ringHandler := &handler.RingHandler{Ring: ringService}
	ringHandler.Register(engine)
	caseHandler := &handler.ReferenceCaseHandler{Repo: store, Scan: scanService}
	caseHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		CatalogSync:    catalogService,
		ResolutionSync: resolutionService,
	}
	adminHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if cfg.CatalogSync.Enabled {
			_, err = cronRunner.Add("catalog_sync", cfg.Cron.CatalogSync, func(ctx context.Context) {
				result, err := catalogService.Sync(ctx, service.SyncOptions{
					Scope:    cfg.CatalogSync.Scope,
					Limit:    cfg.CatalogSync.PageLimit,
					MaxPages: cfg.CatalogSync.MaxPages,
					Resume:   cfg.CatalogSync.Resume,
					Closed:   parseClosedFilter(cfg.CatalogSync.Closed),
				})
				if err != nil {
					logger.Warn("cron catalog sync failed", zap.Error(err))
					return
				}
				logger.Info("cron catalog sync ok",
					zap.Int("pages", result.Pages),
					zap.Int("markets", result.Markets),
					zap.Int("tokens", result.Tokens),
				)
			})
			if err != nil {
				logger.Warn("cron register catalog sync failed", zap.Error(err))
			}
		}
		if cfg.ResolutionSync.Enabled {
			_, err = cronRunner.Add("resolution_sync", cfg.Cron.ResolutionSync, func(ctx context.Context) {
				if _, err := resolutionService.RunOnce(ctx); err != nil {
					logger.Warn("cron resolution sync failed", zap.Error(err))
				}
			})
			if err != nil {
				logger.Warn("cron register resolution sync failed", zap.Error(err))
			}
		}
		if cfg.Watch.Enabled {
			_, err = cronRunner.Add("watch_run", cfg.Cron.WatchRun, func(ctx context.Context) {
				if _, err := watchService.RunOnce(ctx); err != nil {
					logger.Warn("cron watch run failed", zap.Error(err))
				}
			})
			if err != nil {
				logger.Warn("cron register watch run failed", zap.Error(err))
			}
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.TradeStream.Enabled {
		go func() {
			err := streamService.Run(ctx, service.TradeStreamOptions{
				URL:             cfg.TradeStream.URL,
				RefreshInterval: cfg.TradeStream.RefreshInterval,
				MaxAssets:       cfg.TradeStream.MaxAssets,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("trade stream stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func parseClosedFilter(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "open":
		v := false
		return &v
	case "closed":
		v := true
		return &v
	default:
		return nil
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
