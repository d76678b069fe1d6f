package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
)

type Config struct {
	ServerAddr string
	LogLevel   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	RedisAddr  string

	// JSON mirror configuration. MirrorBackend selects "disk" or "s3";
	// MirrorDir is used by the disk backend, the rest by the s3 backend.
	MirrorBackend  string
	MirrorDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	return &Config{
		ServerAddr:     getEnvOrDefault("SERVER_ADDR", ":8080"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		DBHost:         getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:         getEnvOrDefault("DB_PORT", "5432"),
		DBUser:         getEnvOrDefault("DB_USER", "newsblog"),
		DBPassword:     getEnvOrDefault("DB_PASSWORD", "newsblog_dev_password"),
		DBName:         getEnvOrDefault("DB_NAME", "newsblog"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", generateDefaultSecret()),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		MirrorBackend:  getEnvOrDefault("MIRROR_BACKEND", "disk"),
		MirrorDir:      getEnvOrDefault("MIRROR_DIR", "./data"),
		MinioEndpoint:  getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnvOrDefault("MINIO_BUCKET", "newsblog-mirror"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
