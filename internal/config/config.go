package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Ledger  LedgerConfig
	Receipt ReceiptConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type LedgerConfig struct {
	BaseURL  string
	APIToken string
}

type ReceiptConfig struct {
	// Tier selects the proof acquisition strategy:
	// "production", "sandbox", or "simulated".
	Tier         string
	Path         string
	PollAttempts int
	PollInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Ledger: LedgerConfig{
			BaseURL:  getEnv("LEDGER_BASE_URL", "http://localhost:8080/api"),
			APIToken: getEnv("LEDGER_API_TOKEN", ""),
		},
		Receipt: ReceiptConfig{
			Tier:         getEnv("IAP_ENVIRONMENT", "sandbox"),
			Path:         getEnv("RECEIPT_PATH", "./receipt.dat"),
			PollAttempts: getEnvAsInt("RECEIPT_POLL_ATTEMPTS", 15),
			PollInterval: time.Duration(getEnvAsInt("RECEIPT_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
