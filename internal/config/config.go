package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// External property catalog.
	CatalogBaseURL string
	CatalogAPIKey  string
	CatalogTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=estate port=5432 sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		CatalogBaseURL: getEnv("CATALOG_BASE_URL", ""),
		CatalogAPIKey:  getEnv("CATALOG_API_KEY", ""),
		CatalogTimeout: getEnvSeconds("CATALOG_TIMEOUT_SECONDS", 10),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.CatalogBaseURL == "" {
		log.Fatal("[FATAL] CATALOG_BASE_URL is not set, the listing pages cannot work without the catalog")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvSeconds(key string, def int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Second
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("[WARN] %s=%q is not a positive integer, using %ds", key, raw, def)
		return time.Duration(def) * time.Second
	}
	return time.Duration(v) * time.Second
}
