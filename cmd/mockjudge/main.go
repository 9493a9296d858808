package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"njoj_client/internal/common/security"
	"njoj_client/internal/mockjudge"
	"njoj_client/internal/platform/config"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("Configuration loaded.")

	// 2. Initialize JWT
	tokenAuth := security.NewTokenAuth(cfg.JWTKey)

	// 3. Initialize Service and seed data
	svc := mockjudge.NewService(tokenAuth, cfg.JWTExp, cfg.MockJudgeDelay)
	if err := svc.Seed(context.Background(), cfg.MockAdminUsername, cfg.MockAdminPassword); err != nil {
		slog.Error("Failed to seed backend", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeded admin account.", "username", cfg.MockAdminUsername)

	// 4. Start the judge loop
	judgeCtx, judgeCancel := context.WithCancel(context.Background())
	defer judgeCancel()
	go svc.Judge().Start(judgeCtx)

	// 5. Initialize Router & HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.MockAPIPort,
		Handler:      mockjudge.NewRouter(svc),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Mock judge listening", "addr", server.Addr, "api", mockjudge.APIPrefix)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not listen", "addr", server.Addr, "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server...")
	judgeCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server and judge stopped gracefully.")
}
