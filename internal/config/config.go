package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr      string
	DBPath        string
	SessionSecret string
	UploadDir     string
	MaxUploadMB   int
	EmailDomain   string
	UsersPath     string
	Debug         bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	cfg := Config{
		HTTPAddr:      getenv("EXAMHUB_HTTP_ADDR", ":8080"),
		DBPath:        getenv("EXAMHUB_DB_PATH", "examhub.db"),
		SessionSecret: os.Getenv("EXAMHUB_SESSION_SECRET"),
		UploadDir:     getenv("EXAMHUB_UPLOAD_DIR", "uploads"),
		MaxUploadMB:   getenvInt("EXAMHUB_MAX_UPLOAD_MB", 10),
		EmailDomain:   getenv("EXAMHUB_EMAIL_DOMAIN", "keio.jp"),
		UsersPath:     getenv("EXAMHUB_USERS_PATH", "config/users.yaml"),
		Debug:         getenv("EXAMHUB_DEBUG", "false") == "true",
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-me"
	}
	return cfg
}
