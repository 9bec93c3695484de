package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"postutme-be/internal/logger"

	"go.uber.org/zap"
)

const (
	flutterwaveName       = "flutterwave"
	flutterwaveDefaultURL = "https://api.flutterwave.com/v3"
)

// Flutterwave speaks naira on the wire; conversion to and from kobo happens
// only here, at the adapter boundary.
type flutterwaveAdapter struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	expiry        time.Duration
}

func NewFlutterwave(secretKey, webhookSecret, baseURL string, expiry time.Duration) Adapter {
	if baseURL == "" {
		baseURL = flutterwaveDefaultURL
	}
	if secretKey == "" {
		logger.L().Warn("Flutterwave secret key is empty, adapter disabled")
	}

	return &flutterwaveAdapter{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		expiry: expiry,
	}
}

func (f *flutterwaveAdapter) Name() string  { return flutterwaveName }
func (f *flutterwaveAdapter) Enabled() bool { return f.secretKey != "" && f.webhookSecret != "" }
func (f *flutterwaveAdapter) WebhookSecret() string            { return f.webhookSecret }
func (f *flutterwaveAdapter) SignatureScheme() SignatureScheme { return SchemeHMACSHA256 }
func (f *flutterwaveAdapter) SignatureHeader() string          { return "verif-hash" }
func (f *flutterwaveAdapter) TimestampHeader() string          { return "" }

type flutterwaveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (f *flutterwaveAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if !f.Enabled() {
		return nil, ErrProviderUnavailable
	}

	log := logger.FromCtx(ctx).With(
		zap.String("provider", flutterwaveName),
		zap.String("reference", req.Reference),
		zap.String("candidate_id", req.CandidateID),
		zap.Int64("amount", req.Amount),
	)

	body := map[string]interface{}{
		"tx_ref":   req.Reference,
		"amount":   koboToNaira(req.Amount),
		"currency": req.Currency,
		"customer": map[string]interface{}{
			"email":       req.Contact.Email,
			"name":        req.Contact.FullName,
			"phonenumber": req.Contact.Phone,
		},
		"meta": map[string]interface{}{
			"candidate_id": req.CandidateID,
			"purpose":      req.Purpose,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/payments", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info("Sending payment initiation to Flutterwave")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Flutterwave request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading flutterwave response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		log.Error("Flutterwave rejected initiation",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("Flutterwave returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: flutterwave status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var res flutterwaveInitResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding flutterwave response: %v", ErrProviderUnavailable, err)
	}
	if res.Status != "success" || res.Data.Link == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, res.Message)
	}

	log.Info("Flutterwave payment initiated")

	// Flutterwave keys callbacks on the caller-supplied tx_ref.
	return &InitiateResponse{
		PaymentURL:        res.Data.Link,
		ProviderReference: req.Reference,
		ExpiresAt:         time.Now().Add(f.expiry),
	}, nil
}

type flutterwaveWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64       `json:"id"`
		TxRef     string      `json:"tx_ref"`
		Status    string      `json:"status"`
		Amount    json.Number `json:"amount"`
		Currency  string      `json:"currency"`
		CreatedAt time.Time   `json:"created_at"`
	} `json:"data"`
}

func (f *flutterwaveAdapter) ParseWebhook(payload []byte) (*Event, error) {
	var wh flutterwaveWebhook
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if wh.Event == "" || wh.Data.TxRef == "" {
		return nil, ErrMalformedPayload
	}

	kobo, err := nairaToKobo(wh.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", ErrMalformedPayload, wh.Data.Amount)
	}

	return &Event{
		EventID:           flutterwaveName + "-" + strconv.FormatInt(wh.Data.ID, 10) + "-" + wh.Event,
		EventType:         wh.Event,
		ProviderReference: wh.Data.TxRef,
		Status:            mapFlutterwaveStatus(wh.Data.Status),
		Amount:            kobo,
		Currency:          wh.Data.Currency,
		OccurredAt:        wh.Data.CreatedAt,
	}, nil
}

func mapFlutterwaveStatus(status string) EventStatus {
	switch strings.ToLower(status) {
	case "successful", "succeeded":
		return EventSucceeded
	case "failed", "cancelled":
		return EventFailed
	default:
		return EventPending
	}
}

// koboToNaira renders minor units as the decimal naira string the
// Flutterwave API expects.
func koboToNaira(kobo int64) string {
	return fmt.Sprintf("%d.%02d", kobo/100, kobo%100)
}

// nairaToKobo parses a decimal naira amount into kobo without going through
// floating point. Anything finer than kobo precision is malformed, not
// rounded.
func nairaToKobo(s string) (int64, error) {
	whole, frac, _ := strings.Cut(s, ".")

	// Strip the sign first so "-0.50" keeps it.
	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: amount %q", ErrMalformedPayload, s)
	}

	kobo := n * 100
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("%w: amount %q exceeds kobo precision", ErrMalformedPayload, s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: amount %q", ErrMalformedPayload, s)
		}
		kobo += f
	}

	if neg {
		return -kobo, nil
	}
	return kobo, nil
}
