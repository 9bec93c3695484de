package main

import (
	"log"
	"net/http"

	"postutme-be/internal/config"
	"postutme-be/internal/db"
	"postutme-be/internal/httpapi"
	"postutme-be/internal/logger"
	"postutme-be/internal/metrics"
	"postutme-be/internal/middleware"
	"postutme-be/internal/notify"
	"postutme-be/internal/payment"
	"postutme-be/internal/provider"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	registry := buildRegistry(cfg)

	var notifier payment.SettlementNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.SettlementTopic, logger.L())
		defer kn.Close()
		notifier = kn
	} else {
		notifier = notify.NewLogNotifier(logger.L())
	}

	paymentRepo := payment.NewRepository(database)
	paymentSvc := payment.NewService(
		paymentRepo,
		registry,
		provider.NewVerifier(cfg.WebhookMaxSkew),
		notifier,
		payment.NewReceiptGenerator(cfg.ReceiptInstitution),
		cfg.PaymentExpiry,
	)

	handler := httpapi.NewHandler(paymentSvc, registry)

	mux := http.NewServeMux()
	httpapi.RegisterRoutes(mux, handler, cfg.JWTSecret)
	mux.Handle("GET /metrics", metrics.Handler())

	var root http.Handler = mux
	root = middleware.RateLimitMiddleware(root)
	root = metrics.Middleware(root)
	root = logger.LoggingMiddleware(root)
	root = logger.RequestIDMiddleware(root)

	log.Printf("Payments API listening on http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, root))
}

// buildRegistry assembles the adapters in the deployment's priority order.
// The mock adapter joins only when nothing real is enabled, and never in
// production.
func buildRegistry(cfg *config.Config) *provider.Registry {
	adapters := map[string]provider.Adapter{
		"paystack":    provider.NewPaystack(cfg.Paystack.SecretKey, cfg.Paystack.WebhookSecret, cfg.Paystack.BaseURL, cfg.PaymentExpiry),
		"flutterwave": provider.NewFlutterwave(cfg.Flutterwave.SecretKey, cfg.Flutterwave.WebhookSecret, cfg.Flutterwave.BaseURL, cfg.PaymentExpiry),
	}

	order := cfg.ProviderPriority
	if len(order) == 0 {
		order = []string{"paystack", "flutterwave"}
	}

	registry := provider.NewRegistry()
	for _, name := range order {
		if a, ok := adapters[name]; ok {
			registry.Register(a)
		}
	}
	// Priority list may omit configured gateways; register the rest after.
	for name, a := range adapters {
		if _, registered := registry.ByName(name); !registered {
			registry.Register(a)
		}
	}

	if len(registry.EnabledAdapters()) == 0 && cfg.AppEnv != "production" {
		log.Println("No live payment provider configured, registering mock adapter")
		registry.Register(provider.NewMock("", cfg.PaymentExpiry))
	}

	return registry
}
