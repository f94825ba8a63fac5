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

	"chatdock-backend/internal/config"
	"chatdock-backend/internal/database"
	"chatdock-backend/internal/handlers"
	"chatdock-backend/internal/middleware"
	"chatdock-backend/internal/repository"
	"chatdock-backend/internal/router"
	"chatdock-backend/internal/services"
	"chatdock-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting ChatDock Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	chatRepo := repository.NewChatRepo(pool)
	userChatsRepo := repository.NewUserChatsRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	chatService := services.NewChatService(chatRepo, userChatsRepo, redisClient)
	uploadService := services.NewUploadService(
		cfg.ImageKitPrivateKey,
		time.Duration(cfg.UploadTokenTTLMin)*time.Minute,
	)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatService)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	// ──── Step 5: Start Repair Worker Pool ────
	repairPool := worker.NewPool(redisClient, chatService, cfg.RepairWorkers)
	repairPool.Start()
	log.Printf("✓ Repair worker pool started (%d goroutines)", cfg.RepairWorkers)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(jwtAuth, chatHandler, uploadHandler, cfg.ClientURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		repairPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ ChatDock Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
