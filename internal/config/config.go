package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	RedisURL   string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CORSOrigin string
	// Knowledge-base search
	MeiliURL       string
	MeiliMasterKey string
	// Document attachment storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// AI question feature
	AIEndpoint string
	AITimeout  time.Duration
	// Initial tenant bootstrap
	BootstrapCompany    string
	BootstrapAdminEmail string
	BootstrapAdminPass  string
}

func Load() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8790"),
		RedisURL:   getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:  getenv("ATRIUM_JWT_SECRET", "atrium-dev-secret"),
		AccessTTL:  time.Duration(getenvInt("ATRIUM_ACCESS_TTL_SECONDS", 900)) * time.Second,
		RefreshTTL: time.Duration(getenvInt("ATRIUM_REFRESH_TTL_SECONDS", 2592000)) * time.Second,
		CORSOrigin: getenv("ATRIUM_CORS_ORIGIN", "*"),
		// Meilisearch - optional, in-memory fallback used when unset
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		// MinIO - optional, attachments disabled when unset
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "atrium-documents"),
		MinioUseSSL:    getenvInt("MINIO_USE_SSL", 0) == 1,
		// AI - per-company API keys live on the Company record
		AIEndpoint: getenv("ATRIUM_AI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"),
		AITimeout:  time.Duration(getenvInt("ATRIUM_AI_TIMEOUT_SECONDS", 20)) * time.Second,
		// First-run seed data
		BootstrapCompany:    getenv("ATRIUM_BOOTSTRAP_COMPANY", "Atrium Demo Co"),
		BootstrapAdminEmail: getenv("ATRIUM_BOOTSTRAP_ADMIN_EMAIL", "admin@atrium.local"),
		BootstrapAdminPass:  getenv("ATRIUM_BOOTSTRAP_ADMIN_PASSWORD", "atrium-admin"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
