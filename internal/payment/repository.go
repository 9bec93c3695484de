package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Repository interface {
	SavePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetByProviderReference(ctx context.Context, provider, reference string) (*Payment, error)

	// SettlePayment applies the one-way transition out of initiated. It
	// reports false when the row was already terminal, which is the signal
	// to skip side effects.
	SettlePayment(ctx context.Context, provider, reference string, to Status) (bool, error)

	// ExpireOverdue marks initiated payments whose deadline passed as
	// expired and returns how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// SaveReceipt inserts the receipt unless one already exists for the
	// payment; created is false on the duplicate path.
	SaveReceipt(ctx context.Context, r *Receipt) (created bool, err error)
	GetReceiptByPaymentID(ctx context.Context, paymentID string) (*Receipt, error)

	SaveWebhookEvent(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		reference string,
		payload json.RawMessage,
	) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SavePayment(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id,
		candidate_id,
		purpose,
		provider,
		provider_reference,
		amount,
		currency,
		status,
		expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		p.ID, p.CandidateID, p.Purpose, p.Provider, p.ProviderReference,
		p.Amount, p.Currency, p.Status, p.ExpiresAt,
	)
	return err
}

const paymentColumns = `
	SELECT id, candidate_id, purpose, provider, provider_reference,
	       amount, currency, status, created_at, updated_at, expires_at
	FROM payments`

func (r *repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, paymentColumns+` WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *repository) GetByProviderReference(ctx context.Context, provider, reference string) (*Payment, error) {
	row := r.db.QueryRowContext(ctx,
		paymentColumns+` WHERE provider = $1 AND provider_reference = $2`,
		provider, reference,
	)
	return scanPayment(row)
}

func scanPayment(row *sql.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.CandidateID, &p.Purpose, &p.Provider, &p.ProviderReference,
		&p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SettlePayment(ctx context.Context, provider, reference string, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $3, updated_at = now()
		WHERE provider = $1 AND provider_reference = $2 AND status = 'initiated'
	`, provider, reference, to)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'expired', updated_at = now()
		WHERE status = 'initiated' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) SaveReceipt(ctx context.Context, rec *Receipt) (bool, error) {
	const q = `
	INSERT INTO receipts (id, payment_id, serial, content_hash, body)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (payment_id)
	DO NOTHING
	RETURNING id;
	`

	var id string
	err := r.db.QueryRowContext(ctx, q,
		rec.ID, rec.PaymentID, rec.Serial, rec.ContentHash, rec.Body,
	).Scan(&id)

	if err != nil {
		// Existing receipt for this payment → idempotent no-op
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) GetReceiptByPaymentID(ctx context.Context, paymentID string) (*Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, payment_id, serial, content_hash, body, created_at
		FROM receipts WHERE payment_id = $1
	`, paymentID)

	var rec Receipt
	err := row.Scan(&rec.ID, &rec.PaymentID, &rec.Serial, &rec.ContentHash, &rec.Body, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) SaveWebhookEvent(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	reference string,
	payload json.RawMessage,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		provider_reference,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		provider, eventID, eventType, reference, payload,
	).Scan(&id)

	if err != nil {
		// Duplicate delivery → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}
	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks
		SET processed_at = now()
		WHERE id = $1;
	`, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks
		SET process_error = $2
		WHERE id = $1;
	`, webhookID, reason)
	return err
}
