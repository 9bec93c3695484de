package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"postutme-be/internal/logger"
	"postutme-be/internal/payment"
	"postutme-be/internal/provider"
	"postutme-be/internal/utils"

	"go.uber.org/zap"
)

// maxWebhookBody caps inbound callback payloads.
const maxWebhookBody = 1 << 20

type Handler struct {
	Svc      payment.Service
	Registry *provider.Registry
}

func NewHandler(svc payment.Service, registry *provider.Registry) *Handler {
	return &Handler{Svc: svc, Registry: registry}
}

type initRequest struct {
	CandidateID        string   `json:"candidate_id"`
	Purpose            string   `json:"purpose"`
	Amount             int64    `json:"amount"`
	Currency           string   `json:"currency"`
	Email              string   `json:"email"`
	FullName           string   `json:"full_name"`
	Phone              string   `json:"phone"`
	PreferredProviders []string `json:"preferred_providers,omitempty"`
}

type paymentResponse struct {
	ID                string    `json:"id"`
	CandidateID       string    `json:"candidate_id"`
	Purpose           string    `json:"purpose"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		CandidateID:       p.CandidateID,
		Purpose:           string(p.Purpose),
		Provider:          p.Provider,
		ProviderReference: p.ProviderReference,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		ExpiresAt:         p.ExpiresAt,
	}
}

func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.Svc.Initiate(r.Context(), payment.InitiateInput{
		CandidateID: req.CandidateID,
		Purpose:     req.Purpose,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Contact: provider.Contact{
			Email:    req.Email,
			FullName: req.FullName,
			Phone:    req.Phone,
		},
		PreferredProviders: req.PreferredProviders,
	})

	switch {
	case err == nil:
		utils.WriteJSON(w, result, http.StatusCreated)
	case errors.Is(err, payment.ErrPaymentNotPersisted):
		// The gateway transaction exists; hand the reference back so the
		// attempt can be reconciled instead of silently retried.
		utils.WriteJSON(w, map[string]string{
			"error":              "payment could not be recorded, do not retry",
			"provider_reference": result.ProviderReference,
			"provider":           result.Provider,
		}, http.StatusInternalServerError)
	case errors.Is(err, payment.ErrInvalidPurpose),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrInvalidContact),
		errors.Is(err, provider.ErrInvalidAmount):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, provider.ErrNoProviderAvailable):
		utils.WriteJSONError(w, "no payment provider available", http.StatusServiceUnavailable)
	case errors.Is(err, provider.ErrProviderUnavailable):
		utils.WriteJSONError(w, "payment provider unavailable, try again", http.StatusBadGateway)
	default:
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, toPaymentResponse(p), http.StatusOK)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Svc.GenerateReceipt(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		utils.WriteJSON(w, map[string]any{
			"id":           rec.ID,
			"payment_id":   rec.PaymentID,
			"serial":       rec.Serial,
			"content_hash": rec.ContentHash,
			"body":         rec.Body,
			"created_at":   rec.CreatedAt,
		}, http.StatusOK)
	case errors.Is(err, payment.ErrPaymentNotFound):
		utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
	case errors.Is(err, payment.ErrPaymentNotSuccessful):
		utils.WriteJSONError(w, "payment is not successful", http.StatusConflict)
	default:
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// VerifyPayment triggers a provider-side reconciliation. Back-office only.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.VerifyPayment(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		utils.WriteJSON(w, toPaymentResponse(p), http.StatusOK)
	case errors.Is(err, payment.ErrPaymentNotFound):
		utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
	case errors.Is(err, provider.ErrProviderUnavailable):
		utils.WriteJSONError(w, "provider unavailable", http.StatusBadGateway)
	case errors.Is(err, payment.ErrAmountMismatch):
		utils.WriteJSONError(w, "reconciliation flagged for manual review", http.StatusConflict)
	default:
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.SweepExpired(r.Context())
	if err != nil {
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, map[string]int64{"expired": n}, http.StatusOK)
}

// HandleWebhook is the per-gateway callback endpoint. The raw body is read
// before any decoding; signatures are computed over exactly these bytes.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")

	adapter, ok := h.Registry.ByName(providerName)
	if !ok {
		utils.WriteJSONError(w, "unknown provider", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(adapter.SignatureHeader())
	var timestamp string
	if th := adapter.TimestampHeader(); th != "" {
		timestamp = r.Header.Get(th)
	}

	err = h.Svc.ProcessWebhook(r.Context(), providerName, body, signature, timestamp)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	case errors.Is(err, provider.ErrUnknownProvider):
		utils.WriteJSONError(w, "unknown provider", http.StatusNotFound)
	case errors.Is(err, provider.ErrInvalidSignature), errors.Is(err, provider.ErrTimestampStale):
		// Details stay on the operator channel.
		utils.WriteJSONError(w, "webhook rejected", http.StatusUnauthorized)
	case errors.Is(err, provider.ErrMalformedPayload), errors.Is(err, payment.ErrAmountMismatch):
		utils.WriteJSONError(w, "webhook rejected", http.StatusBadRequest)
	case errors.Is(err, payment.ErrPaymentNotFound):
		utils.WriteJSONError(w, "webhook rejected", http.StatusNotFound)
	default:
		logger.FromCtx(r.Context()).Error("Webhook processing failed", zap.Error(err))
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) ProviderStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.Registry.Status(), http.StatusOK)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
