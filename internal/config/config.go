package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Identity provider (shared HS256 secret for verifying its tokens)
	JWTSecret string

	// ImageKit upload signing
	ImageKitPrivateKey string
	UploadTokenTTLMin  int

	// Repair workers
	RepairWorkers int

	// Dashboard
	ClientURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "3000"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		RedisURL:           mustGetEnv("REDIS_URL"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		ImageKitPrivateKey: mustGetEnv("IMAGE_KIT_PRIVATE_KEY"),
		UploadTokenTTLMin:  getEnvAsIntOrDefault("UPLOAD_TOKEN_TTL_MINUTES", 30),
		RepairWorkers:      getEnvAsIntOrDefault("REPAIR_WORKERS", 2),
		ClientURL:          getEnvOrDefault("CLIENT_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
