package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"postutme-be/internal/logger"

	"go.uber.org/zap"
)

const (
	paystackName       = "paystack"
	paystackDefaultURL = "https://api.paystack.co"
)

type paystackAdapter struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	expiry        time.Duration
}

// NewPaystack builds the Paystack adapter. Missing credentials produce a
// disabled adapter, never a construction error.
func NewPaystack(secretKey, webhookSecret, baseURL string, expiry time.Duration) Adapter {
	if baseURL == "" {
		baseURL = paystackDefaultURL
	}
	if secretKey == "" {
		logger.L().Warn("Paystack secret key is empty, adapter disabled")
	}

	return &paystackAdapter{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		expiry: expiry,
	}
}

func (p *paystackAdapter) Name() string                     { return paystackName }
func (p *paystackAdapter) Enabled() bool                    { return p.secretKey != "" && p.webhookSecret != "" }
func (p *paystackAdapter) WebhookSecret() string            { return p.webhookSecret }
func (p *paystackAdapter) SignatureScheme() SignatureScheme { return SchemeHMACSHA512 }
func (p *paystackAdapter) SignatureHeader() string          { return "x-paystack-signature" }
func (p *paystackAdapter) TimestampHeader() string          { return "" }

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *paystackAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if !p.Enabled() {
		return nil, ErrProviderUnavailable
	}

	log := logger.FromCtx(ctx).With(
		zap.String("provider", paystackName),
		zap.String("reference", req.Reference),
		zap.String("candidate_id", req.CandidateID),
		zap.Int64("amount", req.Amount),
	)

	body := map[string]interface{}{
		"email":     req.Contact.Email,
		"amount":    req.Amount, // Paystack takes kobo directly
		"currency":  req.Currency,
		"reference": req.Reference,
		"metadata": map[string]interface{}{
			"candidate_id": req.CandidateID,
			"purpose":      req.Purpose,
			"full_name":    req.Contact.FullName,
			"phone":        req.Contact.Phone,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/transaction/initialize", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info("Sending payment initiation to Paystack")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Paystack request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading paystack response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		log.Error("Paystack rejected initiation",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Paystack returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: paystack status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var res paystackInitResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding paystack response: %v", ErrProviderUnavailable, err)
	}
	if !res.Status || res.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, res.Message)
	}

	log.Info("Paystack payment initiated",
		zap.String("provider_reference", res.Data.Reference),
	)

	return &InitiateResponse{
		PaymentURL:        res.Data.AuthorizationURL,
		ProviderReference: res.Data.Reference,
		ExpiresAt:         time.Now().Add(p.expiry),
	}, nil
}

type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64     `json:"id"`
		Reference string    `json:"reference"`
		Status    string    `json:"status"`
		Amount    int64     `json:"amount"`
		Currency  string    `json:"currency"`
		PaidAt    time.Time `json:"paid_at"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
}

func (p *paystackAdapter) ParseWebhook(payload []byte) (*Event, error) {
	var wh paystackWebhook
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if wh.Event == "" || wh.Data.Reference == "" {
		return nil, ErrMalformedPayload
	}

	occurred := wh.Data.PaidAt
	if occurred.IsZero() {
		occurred = wh.Data.CreatedAt
	}

	return &Event{
		EventID:           paystackName + "-" + strconv.FormatInt(wh.Data.ID, 10) + "-" + wh.Event,
		EventType:         wh.Event,
		ProviderReference: wh.Data.Reference,
		Status:            mapPaystackStatus(wh.Data.Status),
		Amount:            wh.Data.Amount,
		Currency:          wh.Data.Currency,
		OccurredAt:        occurred,
	}, nil
}

func mapPaystackStatus(status string) EventStatus {
	switch status {
	case "success":
		return EventSucceeded
	case "failed", "abandoned", "reversed":
		return EventFailed
	default:
		return EventPending
	}
}

type paystackVerifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		ID        int64     `json:"id"`
		Reference string    `json:"reference"`
		Status    string    `json:"status"`
		Amount    int64     `json:"amount"`
		Currency  string    `json:"currency"`
		PaidAt    time.Time `json:"paid_at"`
	} `json:"data"`
}

// QueryStatus asks Paystack for the authoritative transaction state. Used
// for manual reconciliation when a webhook was missed.
func (p *paystackAdapter) QueryStatus(ctx context.Context, providerReference string) (*Event, error) {
	if !p.Enabled() {
		return nil, ErrProviderUnavailable
	}

	url := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, providerReference)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.FromCtx(ctx).Error("Paystack verify request failed",
			zap.String("provider_reference", providerReference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading paystack response: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: paystack status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var res paystackVerifyResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding paystack response: %v", ErrProviderUnavailable, err)
	}

	return &Event{
		EventID:           paystackName + "-verify-" + strconv.FormatInt(res.Data.ID, 10),
		EventType:         "transaction.verify",
		ProviderReference: res.Data.Reference,
		Status:            mapPaystackStatus(res.Data.Status),
		Amount:            res.Data.Amount,
		Currency:          res.Data.Currency,
		OccurredAt:        res.Data.PaidAt,
	}, nil
}
