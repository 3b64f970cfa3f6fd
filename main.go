package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"quill/auth"
	"quill/config"
	"quill/database"
	"quill/handlers"
	"quill/routes"
	"quill/storage"
)

func main() {
	log.Println("Starting Quill API server...")

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.Connect(cfg.MongoURI); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}

	if err := database.EnsureIndexes(); err != nil {
		log.Fatal("Failed to create indexes: ", err)
	}

	uploads, err := storage.FromConfig(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to set up blob storage: ", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)
	handlers.Configure(uploads, tokens)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(tokens, cfg.ClientOrigin)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	if err := database.Disconnect(); err != nil {
		log.Println("MongoDB disconnect error: ", err)
	}

	log.Println("Server stopped")
}
