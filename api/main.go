package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mova-engine/rulekit/core/abtest"
	"github.com/mova-engine/rulekit/core/engine"
	"github.com/mova-engine/rulekit/core/reload"
	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/store"
	"github.com/mova-engine/rulekit/core/store/filestore"
	"github.com/mova-engine/rulekit/core/store/memstore"
	"github.com/mova-engine/rulekit/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cleanup := InitTracing()
	defer cleanup()

	LogSystemEvent("startup", logrus.Fields{
		"version":    "1.0.0",
		"go_version": runtime.Version(),
	})

	reg := registry.New()
	abRouter := abtest.New()

	var st store.RuleStore
	switch cfg.Store.Backend {
	case config.StoreBackendFile:
		st, err = filestore.New(cfg.Store.Dir, cfg.Store.SchemaDir)
		if err != nil {
			LogError("main", "filestore_init", err, nil)
			log.Fatalf("Failed to initialize filestore: %v", err)
		}
	default:
		st = memstore.New()
	}

	reloadCtrl := reload.New(reg, st, tracer)
	eng := engine.New(reg, abRouter, engineLoggerAdapter{}, nil, tracer)

	if cfg.Reload.AutoReloadEnabled {
		if err := reloadCtrl.Start(cfg.Reload.IntervalSeconds, func(err error) {
			LogError("reload", "auto_reload", err, nil)
		}); err != nil {
			LogError("main", "reload_start", err, nil)
		}
	}

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(StructuredLoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(errorHandlingMiddleware())
	router.Use(PrometheusMiddleware())
	router.Use(otelgin.Middleware("rulekit"))

	registerRoutes(router, eng, reloadCtrl, abRouter, st, reg)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	go updateSystemMetrics()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		LogSystemEvent("server_start", logrus.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			LogError("main", "server_start", err, nil)
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	LogSystemEvent("shutdown_start", nil)
	reloadCtrl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace+25*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		LogError("main", "server_shutdown", err, nil)
		log.Fatal("Server forced to shutdown:", err)
	}

	LogSystemEvent("shutdown_complete", nil)
}

// engineLoggerAdapter satisfies engine.Logger via the package-level
// structured logger.
type engineLoggerAdapter struct{}

func (engineLoggerAdapter) RuleFault(ruleID, missingAttr string, available []string) {
	LogRuleFault(ruleID, missingAttr, available)
}

func errorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"details": err.Error(),
			})
		}
	}
}

// updateSystemMetrics periodically updates system metrics
func updateSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		UpdateSystemMetrics(runtime.NumGoroutine(), m.Alloc)
	}
}
