package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omoknet/gomoku-server/internal/v1/config"
	"github.com/omoknet/gomoku-server/internal/v1/health"
	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/ratelimit"
	"github.com/omoknet/gomoku-server/internal/v1/registry"
	"github.com/omoknet/gomoku-server/internal/v1/room"
	"github.com/omoknet/gomoku-server/internal/v1/session"
	"github.com/omoknet/gomoku-server/internal/v1/transport"
)

func main() {
	// Load .env file for local development.
	// Try multiple paths to handle different ways of running the app
	envPaths := []string{".env", "../../../.env", "../../.env"}
	var envLoaded bool

	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		slog.Warn("No .env file found in any expected location, relying on environment variables")
	}

	// Validate environment variables before starting the server
	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.DevelopmentMode {
		slog.Info("Running in DEVELOPMENT MODE")
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	// --- Game Engine ---
	reg := registry.New(room.Config{
		TurnTimeLimit:        cfg.TurnTimeLimit,
		ReconnectTimeout:     cfg.ReconnectTimeout,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		RematchTimeout:       cfg.RematchTimeout,
	})

	limiter, err := ratelimit.NewMessageLimiter(cfg.RateLimitChat)
	if err != nil {
		slog.Error("Failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	dispatcher := session.NewDispatcher(reg, limiter)

	// --- TCP Game Server ---
	tcpServer := transport.NewServer(cfg.Host+":"+cfg.Port, dispatcher)
	if err := tcpServer.Listen(); err != nil {
		slog.Error("Failed to bind TCP listener", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := tcpServer.Serve(); err != nil {
			slog.Error("TCP server failed", "error", err)
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	// --- Forfeit Monitor ---
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	monitor := registry.NewForfeitMonitor(reg, cfg.ForfeitSweepInterval)
	go monitor.Run(monitorCtx)

	// --- HTTP Ops Surface (metrics + health) ---
	if !cfg.DevelopmentMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := health.NewHandler(tcpServer)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		slog.Info("Ops server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to run ops server", "error", err)
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	slog.Info("Game server started", "tcp_addr", tcpServer.Addr())

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	stopMonitor()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := tcpServer.Shutdown(ctx); err != nil {
		slog.Error("Error during TCP server shutdown:", "error", err)
	}
	reg.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Ops server forced to shutdown:", "error", err)
	}

	slog.Info("Server exiting")
}
