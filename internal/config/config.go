package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig carries the credentials for one payment gateway. An empty
// SecretKey means the gateway is configured off for this deployment.
type ProviderConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	JWTSecret string

	Paystack    ProviderConfig
	Flutterwave ProviderConfig

	// ProviderPriority lists gateway names in registration order; the first
	// enabled entry becomes the primary adapter.
	ProviderPriority []string

	WebhookMaxSkew time.Duration

	KafkaBrokers       []string
	SettlementTopic    string
	PaymentExpiry      time.Duration
	ReceiptInstitution string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		JWTSecret: os.Getenv("SECRET_KEY"),

		Paystack: ProviderConfig{
			SecretKey:     os.Getenv("PAYSTACK_SECRET_KEY"),
			WebhookSecret: os.Getenv("PAYSTACK_WEBHOOK_SECRET"),
			BaseURL:       os.Getenv("PAYSTACK_BASE_URL"),
		},
		Flutterwave: ProviderConfig{
			SecretKey:     os.Getenv("FLUTTERWAVE_SECRET_KEY"),
			WebhookSecret: os.Getenv("FLUTTERWAVE_WEBHOOK_SECRET"),
			BaseURL:       os.Getenv("FLUTTERWAVE_BASE_URL"),
		},

		ProviderPriority: splitList(os.Getenv("PROVIDER_PRIORITY")),

		WebhookMaxSkew: durationOr("WEBHOOK_MAX_SKEW", 5*time.Minute),

		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		SettlementTopic: envOr("SETTLEMENT_TOPIC", "payments.settled"),
		PaymentExpiry:   durationOr("PAYMENT_EXPIRY", 24*time.Hour),

		ReceiptInstitution: envOr("RECEIPT_INSTITUTION", "POST-UTME ADMISSIONS PORTAL"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare numbers are read as seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
