package httpapi

import (
	"net/http"

	"postutme-be/internal/middleware"
)

// RegisterRoutes mounts the payment endpoints. Back-office operations are
// wrapped in admin auth; everything else is candidate- or gateway-facing.
func RegisterRoutes(mux *http.ServeMux, h *Handler, jwtSecret string) {
	mux.Handle("POST /payments/init", http.HandlerFunc(h.InitiatePayment))
	mux.Handle("GET /payments/{id}/status", http.HandlerFunc(h.GetPaymentStatus))
	mux.Handle("GET /payments/{id}/receipt", http.HandlerFunc(h.GetReceipt))

	mux.Handle("POST /payments/verify/{id}",
		middleware.RequireAdmin(jwtSecret, http.HandlerFunc(h.VerifyPayment)))
	mux.Handle("POST /payments/expire-sweep",
		middleware.RequireAdmin(jwtSecret, http.HandlerFunc(h.SweepExpired)))

	mux.Handle("POST /webhooks/{provider}", http.HandlerFunc(h.HandleWebhook))

	mux.Handle("GET /providers/status", http.HandlerFunc(h.ProviderStatus))
	mux.Handle("GET /healthz", http.HandlerFunc(h.Healthz))
}
