package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	WorkerCount int
	Google      GoogleConfig
	Outlook     OutlookConfig
}

// GoogleConfig - тройка OAuth-кредов Google Calendar.
// Отсутствие любого значения отключает провайдера, но не процесс.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

type OutlookConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TenantID     string
}

func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"), // пусто = in-memory хранилище
		WorkerCount: getEnvInt("SYNC_WORKERS", 3),
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
		},
		Outlook: OutlookConfig{
			ClientID:     os.Getenv("OUTLOOK_CLIENT_ID"),
			ClientSecret: os.Getenv("OUTLOOK_CLIENT_SECRET"),
			RefreshToken: os.Getenv("OUTLOOK_REFRESH_TOKEN"),
			TenantID:     getEnv("OUTLOOK_TENANT_ID", "common"),
		},
	}
}

func (c GoogleConfig) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func (c OutlookConfig) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
