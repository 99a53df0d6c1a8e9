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
	"go.mongodb.org/mongo-driver/mongo"

	"classifieds/config"
	"classifieds/database"
	"classifieds/feed"
	"classifieds/handlers"
	"classifieds/middleware"
	"classifieds/routes"
	"classifieds/store"
	"classifieds/token"
	"classifieds/uploads"
)

func main() {
	log.Println("Starting classifieds server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to MongoDB, with a couple of retries for slow-starting
	// databases.
	var client *mongo.Client
	for attempt := 1; ; attempt++ {
		client, err = database.Connect(context.Background(), cfg.MongoURI)
		if err == nil {
			break
		}
		log.Printf("MongoDB connection attempt %d failed: %v", attempt, err)
		if attempt == 3 {
			log.Fatal("Failed to connect to MongoDB: ", err)
		}
		time.Sleep(2 * time.Second)
	}
	defer func() {
		if err := database.Disconnect(client); err != nil {
			log.Printf("MongoDB disconnect: %v", err)
		}
	}()
	log.Println("MongoDB connected")

	db := client.Database(cfg.Database)
	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelIndex()
	if err := users.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create user indexes: ", err)
	}
	if err := posts.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create post indexes: ", err)
	}

	tokens, err := token.NewService(cfg.JWTSecret, cfg.TokenValidity)
	if err != nil {
		log.Fatal("Token service: ", err)
	}

	var images uploads.Store
	staticDir := ""
	if cfg.CloudinaryURL != "" {
		images, err = uploads.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal("Cloudinary: ", err)
		}
		log.Println("Image uploads: Cloudinary")
	} else {
		images, err = uploads.NewLocalStore(cfg.UploadDir, "/uploads")
		if err != nil {
			log.Fatal("Upload directory: ", err)
		}
		staticDir = cfg.UploadDir
		log.Printf("Image uploads: local directory %s", cfg.UploadDir)
	}

	feedService := feed.NewService(posts, users)
	limiter := middleware.NewIPRateLimiter(60, time.Minute)

	router := routes.Setup(routes.Deps{
		Auth:            handlers.NewAuthHandler(users, tokens),
		Posts:           handlers.NewPostHandler(posts, feedService, images),
		Identity:        middleware.Auth(tokens, users),
		Limit:           middleware.RateLimit(limiter),
		StaticUploadDir: staticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	log.Println("Server stopped")
}
