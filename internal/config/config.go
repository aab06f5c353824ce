package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every setting the kiosk binaries read. Values come from
// the environment, with an optional .env file for development.
type Config struct {
	APIBaseURL string

	RedisAddr     string
	RedisPassword string

	// empty disables event publishing
	KafkaBrokers []string

	PayPalBaseURL  string
	PayPalClientID string
	PayPalSecret   string

	BankName string
	BankIBAN string
	BankBIC  string

	// stub backend listen address
	ListenAddr string
}

func Load() Config {
	_ = godotenv.Load() // missing .env is fine

	return Config{
		APIBaseURL:     getEnv("KIOSK_API_BASE_URL", "http://localhost:3000"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		PayPalBaseURL:  getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayPalClientID: getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalSecret:   getEnv("PAYPAL_SECRET", ""),
		BankName:       getEnv("BANK_NAME", "Deine Bank"),
		BankIBAN:       getEnv("BANK_IBAN", "DE000000000000000000"),
		BankBIC:        getEnv("BANK_BIC", "XXXXXXXXXXX"),
		ListenAddr:     getEnv("STUB_API_ADDR", ":3000"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
