// Package config loads runtime configuration from the environment. A .env
// file is honored when present so local runs match deployed ones.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultTokenValidity = 7 * 24 * time.Hour

type Config struct {
	Port     string
	GinMode  string
	MongoURI string
	Database string

	// JWTSecret signs identity tokens. The server refuses to start
	// without one.
	JWTSecret     string
	TokenValidity time.Duration

	// CloudinaryURL enables remote image hosting; when empty, images are
	// written under UploadDir and served from /uploads.
	CloudinaryURL string
	UploadDir     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       os.Getenv("GIN_MODE"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		Database:      getEnv("MONGODB_DATABASE", "classifieds"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenValidity: defaultTokenValidity,
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	if v := os.Getenv("TOKEN_VALIDITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("TOKEN_VALIDITY is not a valid duration")
		}
		cfg.TokenValidity = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
