package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func newLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	pool, err := newDBPool(initCtx, cfg.DBURL)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("DB pool ready")

	h := &Handler{
		db:  pool,
		log: logger,
		gemini: geminiConfig{
			BaseURL: cfg.GeminiBaseURL,
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
		},
		now: time.Now,
	}

	fbAuth, err := newFirebaseAuth(initCtx, cfg)
	if err != nil {
		logger.Fatal("firebase auth", zap.Error(err))
	}
	if fbAuth != nil {
		h.firebase = fbAuth
		logger.Info("firebase ID tokens accepted", zap.String("project", cfg.FirebaseProjectID))
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; AI endpoints will fail")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h.metrics = newMetricsManager("fittrack", "api", reg)

	if strings.EqualFold(cfg.GinMode, "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(requestLogger(logger), recovery(logger, h.metrics), requestMetrics(h.metrics))
	if cfg.ClientURL != "" {
		router.Use(corsMiddleware(cfg.ClientURL))
	} else {
		logger.Warn("CLIENT_URL not set; CORS disabled")
	}
	router.GET("/metrics", h.metrics.handler())
	h.registerRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("gin_mode", gin.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
