package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docquery-ai/config"
	"docquery-ai/internal/devserver"
	"docquery-ai/pkg/logger"
)

func main() {
	// Load environment variables
	err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment variables: %v", err)
	}

	zapLogger := logger.New(config.Env.Environment)
	defer zapLogger.Sync()

	server, err := devserver.New(devserver.Config{
		JWTSecret:       config.Env.JWTSecret,
		AccessTokenTTL:  time.Millisecond * time.Duration(config.Env.JWTExpirationMilliseconds),
		RefreshTokenTTL: time.Millisecond * time.Duration(config.Env.JWTRefreshExpirationMilliseconds),
		CorsOrigin:      config.Env.CorsAllowedOrigin,
		Users: []devserver.FixtureUser{
			{
				Email:    config.Env.FixtureUserEmail,
				Password: config.Env.FixtureUserPassword,
				Role:     "admin",
			},
		},
		TokenDelay: 20 * time.Millisecond,
	}, zapLogger)
	if err != nil {
		log.Fatalf("Failed to build dev server: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + config.Env.DevServerPort,
		Handler: server.Handler(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting dev server on port %s", config.Env.DevServerPort)
		fmt.Println("✨ DocQuery dev server running in", config.Env.Environment, "Mode. Log in as", config.Env.FixtureUserEmail)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Dev server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🔻 Dev server is shutting down...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Dev server forced to shutdown: %v", err)
	}

	log.Println("👋 Dev server has been shut down successfully")
}
