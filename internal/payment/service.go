package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"postutme-be/internal/logger"
	"postutme-be/internal/metrics"
	"postutme-be/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InitiateInput struct {
	CandidateID        string
	Purpose            string
	Amount             int64 // minor units (kobo)
	Currency           string
	Contact            provider.Contact
	PreferredProviders []string
}

type InitiateResult struct {
	PaymentID         string    `json:"payment_id"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	PaymentURL        string    `json:"payment_url"`
	ExpiresAt         time.Time `json:"expires_at"`
	Instructions      []string  `json:"instructions"`
}

type Service interface {
	Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error)
	GetStatus(ctx context.Context, paymentID string) (*Payment, error)
	VerifyPayment(ctx context.Context, paymentID string) (*Payment, error)
	ProcessWebhook(ctx context.Context, providerName string, payload []byte, signature, timestamp string) error
	GenerateReceipt(ctx context.Context, paymentID string) (*Receipt, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	registry *provider.Registry
	verifier *provider.Verifier
	notifier SettlementNotifier
	receipts *ReceiptGenerator

	// fallback deadline when the gateway does not return one
	expiry time.Duration
}

func NewService(
	repo Repository,
	registry *provider.Registry,
	verifier *provider.Verifier,
	notifier SettlementNotifier,
	receipts *ReceiptGenerator,
	expiry time.Duration,
) Service {
	return &service{
		repo:     repo,
		registry: registry,
		verifier: verifier,
		notifier: notifier,
		receipts: receipts,
		expiry:   expiry,
	}
}

func (s *service) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	purpose, ok := ParsePurpose(in.Purpose)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, in.Purpose)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount %d", ErrInvalidAmount, in.Amount)
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if in.Currency != DefaultCurrency {
		return nil, fmt.Errorf("%w: currency %q", ErrInvalidAmount, in.Currency)
	}
	if in.CandidateID == "" || in.Contact.Email == "" {
		return nil, ErrInvalidContact
	}

	adapter, ok := s.registry.ByPreference(in.PreferredProviders)
	if !ok {
		if enabled := s.registry.EnabledAdapters(); len(enabled) > 0 {
			adapter = enabled[0]
		} else {
			return nil, provider.ErrNoProviderAvailable
		}
	}

	log := logger.FromCtx(ctx).With(
		zap.String("candidate_id", in.CandidateID),
		zap.String("purpose", string(purpose)),
		zap.String("provider", adapter.Name()),
		zap.Int64("amount", in.Amount),
	)

	reference := uuid.NewString()
	resp, err := adapter.Initiate(ctx, provider.InitiateRequest{
		CandidateID: in.CandidateID,
		Purpose:     string(purpose),
		Reference:   reference,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Contact:     in.Contact,
	})
	if err != nil {
		log.Warn("Gateway initiation failed", zap.Error(err))
		return nil, err
	}

	expiresAt := resp.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.expiry)
	}

	p := &Payment{
		ID:                uuid.NewString(),
		CandidateID:       in.CandidateID,
		Purpose:           purpose,
		Provider:          adapter.Name(),
		ProviderReference: resp.ProviderReference,
		Amount:            in.Amount,
		Currency:          in.Currency,
		Status:            StatusInitiated,
		ExpiresAt:         expiresAt,
	}

	result := &InitiateResult{
		PaymentID:         p.ID,
		Provider:          p.Provider,
		ProviderReference: p.ProviderReference,
		PaymentURL:        resp.PaymentURL,
		ExpiresAt:         expiresAt,
		Instructions: []string{
			"Complete your payment on the secure gateway page.",
			"Quote reference " + p.ProviderReference + " in any enquiry.",
			"Your portal status updates automatically once the gateway confirms payment.",
		},
	}

	if err := s.repo.SavePayment(ctx, p); err != nil {
		// The gateway-side transaction exists; never drop its reference.
		log.Error("Payment persistence failed after gateway call, manual reconciliation needed",
			zap.String("provider_reference", resp.ProviderReference),
			zap.Error(err),
		)
		return result, fmt.Errorf("%w: reference %s: %v", ErrPaymentNotPersisted, resp.ProviderReference, err)
	}

	metrics.RecordPaymentInitiated(p.Provider, string(purpose))
	log.Info("Payment initiated",
		zap.String("payment_id", p.ID),
		zap.String("provider_reference", p.ProviderReference),
	)

	return result, nil
}

func (s *service) GetStatus(ctx context.Context, paymentID string) (*Payment, error) {
	return s.repo.GetPayment(ctx, paymentID)
}

// VerifyPayment reconciles the stored record against the gateway. Used when
// a webhook was missed; requires the recorded provider to be registered and
// enabled.
func (s *service) VerifyPayment(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.registry.ByName(p.Provider)
	if !ok || !adapter.Enabled() {
		return nil, fmt.Errorf("%w: provider %s not enabled", provider.ErrProviderUnavailable, p.Provider)
	}

	querier, ok := adapter.(provider.StatusQuerier)
	if !ok {
		// No provider-side lookup; stored record is as authoritative as we get.
		return p, nil
	}

	ev, err := querier.QueryStatus(ctx, p.ProviderReference)
	if err != nil {
		return nil, err
	}

	if !p.Status.Terminal() {
		if err := s.applyEvent(ctx, p, ev); err != nil {
			return nil, err
		}
	}

	return s.repo.GetPayment(ctx, paymentID)
}

func (s *service) ProcessWebhook(ctx context.Context, providerName string, payload []byte, signature, timestamp string) error {
	log := logger.FromCtx(ctx).With(zap.String("provider", providerName))

	adapter, ok := s.registry.ByName(providerName)
	if !ok || !adapter.Enabled() {
		metrics.RecordWebhook(providerName, "unknown_provider")
		return provider.ErrUnknownProvider
	}

	if adapter.TimestampHeader() != "" && timestamp == "" {
		log.Error("Webhook missing required timestamp header")
		metrics.RecordWebhook(providerName, "stale_timestamp")
		return provider.ErrTimestampStale
	}

	if err := s.verifier.Verify(payload, signature, timestamp, adapter.WebhookSecret(), adapter.SignatureScheme()); err != nil {
		// Operator channel: this is either a forgery or a misconfigured secret.
		log.Error("Webhook verification failed",
			zap.Int("payload_bytes", len(payload)),
			zap.Error(err),
		)
		if errors.Is(err, provider.ErrTimestampStale) {
			metrics.RecordWebhook(providerName, "stale_timestamp")
		} else {
			metrics.RecordWebhook(providerName, "invalid_signature")
		}
		return err
	}

	ev, err := adapter.ParseWebhook(payload)
	if err != nil {
		log.Error("Webhook payload unparseable after valid signature", zap.Error(err))
		metrics.RecordWebhook(providerName, "malformed")
		return err
	}

	webhookID, duplicate, err := s.repo.SaveWebhookEvent(ctx, providerName, ev.EventID, ev.EventType, ev.ProviderReference, json.RawMessage(payload))
	if err != nil {
		return fmt.Errorf("recording webhook event: %w", err)
	}
	if duplicate {
		// A redelivered event ID still gets reapplied: the first delivery
		// may have failed after the audit insert, and the conditional
		// status update makes reapplying a settled payment a no-op.
		log.Info("Webhook redelivery, reapplying",
			zap.String("event_id", ev.EventID),
			zap.String("provider_reference", ev.ProviderReference),
		)
		metrics.RecordWebhook(providerName, "duplicate")
	}

	p, err := s.repo.GetByProviderReference(ctx, providerName, ev.ProviderReference)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// A valid signature with an unknown reference must never create
			// a record.
			log.Error("Webhook references unknown payment",
				zap.String("provider_reference", ev.ProviderReference),
			)
			if !duplicate {
				_ = s.repo.MarkWebhookFailed(ctx, webhookID, "payment not found")
			}
			metrics.RecordWebhook(providerName, "payment_not_found")
		}
		return err
	}

	if err := s.applyEvent(ctx, p, ev); err != nil {
		if !duplicate {
			_ = s.repo.MarkWebhookFailed(ctx, webhookID, err.Error())
		}
		metrics.RecordWebhook(providerName, "rejected")
		return err
	}

	if !duplicate {
		if err := s.repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
			log.Warn("Failed to mark webhook processed", zap.Int64("webhook_id", webhookID), zap.Error(err))
		}
		metrics.RecordWebhook(providerName, "processed")
	}
	return nil
}

// applyEvent applies the transition a canonical event implies. Replays and
// races resolve through the conditional update: zero rows affected means a
// terminal status already won, so side effects are skipped.
func (s *service) applyEvent(ctx context.Context, p *Payment, ev *provider.Event) error {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_id", p.ID),
		zap.String("provider", p.Provider),
		zap.String("provider_reference", p.ProviderReference),
	)

	if p.Status.Terminal() {
		log.Info("Payment already settled, webhook is a no-op")
		return nil
	}

	var target Status
	switch ev.Status {
	case provider.EventSucceeded:
		// Fail closed on any amount disagreement; the record stays
		// initiated pending manual review.
		if ev.Amount != p.Amount || ev.Currency != p.Currency {
			log.Error("Webhook amount mismatch",
				zap.Int64("stored_amount", p.Amount),
				zap.Int64("reported_amount", ev.Amount),
				zap.String("stored_currency", p.Currency),
				zap.String("reported_currency", ev.Currency),
			)
			return fmt.Errorf("%w: stored %d %s, reported %d %s",
				ErrAmountMismatch, p.Amount, p.Currency, ev.Amount, ev.Currency)
		}
		target = StatusSucceeded
	case provider.EventFailed:
		target = StatusFailed
	default:
		// Pending reports carry no transition.
		return nil
	}

	applied, err := s.repo.SettlePayment(ctx, p.Provider, p.ProviderReference, target)
	if err != nil {
		return fmt.Errorf("settling payment %s: %w", p.ID, err)
	}
	if !applied {
		log.Info("Payment settled concurrently, skipping side effects")
		return nil
	}

	metrics.RecordPaymentSettled(string(target))
	log.Info("Payment settled", zap.String("status", string(target)))

	if target != StatusSucceeded {
		return nil
	}

	settled, err := s.repo.GetPayment(ctx, p.ID)
	if err != nil {
		return err
	}
	if _, err := s.ensureReceipt(ctx, settled); err != nil {
		return err
	}

	if s.notifier != nil {
		nev := SettledEvent{
			PaymentID:         settled.ID,
			CandidateID:       settled.CandidateID,
			Purpose:           settled.Purpose,
			Provider:          settled.Provider,
			ProviderReference: settled.ProviderReference,
			Amount:            settled.Amount,
			Currency:          settled.Currency,
			SettledAt:         settled.UpdatedAt,
		}
		if err := s.notifier.OnPaymentSettled(ctx, nev); err != nil {
			// The payment stays settled; the collaborator reconciles later.
			log.Error("Settlement notification failed", zap.Error(err))
		}
	}

	return nil
}

func (s *service) GenerateReceipt(ctx context.Context, paymentID string) (*Receipt, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSuccessful, p.Status)
	}
	return s.ensureReceipt(ctx, p)
}

// ensureReceipt creates the payment's receipt exactly once and returns the
// stored artifact either way.
func (s *service) ensureReceipt(ctx context.Context, p *Payment) (*Receipt, error) {
	if existing, err := s.repo.GetReceiptByPaymentID(ctx, p.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rec := s.receipts.Generate(p)
	created, err := s.repo.SaveReceipt(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("saving receipt for payment %s: %w", p.ID, err)
	}
	if !created {
		// Lost the race; the stored receipt wins.
		return s.repo.GetReceiptByPaymentID(ctx, p.ID)
	}

	logger.FromCtx(ctx).Info("Receipt generated",
		zap.String("payment_id", p.ID),
		zap.String("serial", rec.Serial),
	)
	return rec, nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromCtx(ctx).Info("Expired overdue payments", zap.Int64("count", n))
	}
	return n, nil
}
