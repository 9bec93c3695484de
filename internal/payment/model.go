package payment

import (
	"context"
	"time"
)

// DefaultCurrency is the only currency the portal charges in.
const DefaultCurrency = "NGN"

type Purpose string

const (
	PurposeApplicationFee Purpose = "application_fee"
	PurposeAcceptanceFee  Purpose = "acceptance_fee"
	PurposeSchoolFees     Purpose = "school_fees"
	PurposeOther          Purpose = "other"
)

func ParsePurpose(s string) (Purpose, bool) {
	switch Purpose(s) {
	case PurposeApplicationFee, PurposeAcceptanceFee, PurposeSchoolFees, PurposeOther:
		return Purpose(s), true
	}
	return "", false
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusExpired
}

// Payment is the durable record of one payment attempt. Everything except
// Status and UpdatedAt is immutable after creation.
type Payment struct {
	ID                string
	CandidateID       string
	Purpose           Purpose
	Provider          string
	ProviderReference string
	Amount            int64 // minor units (kobo)
	Currency          string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         time.Time
}

// Receipt exists 1:1 with a succeeded Payment.
type Receipt struct {
	ID          string
	PaymentID   string
	Serial      string
	ContentHash string
	Body        string
	CreatedAt   time.Time
}

// SettledEvent is handed to the external collaborator when a payment first
// transitions into succeeded, after the receipt is durable.
type SettledEvent struct {
	PaymentID         string    `json:"payment_id"`
	CandidateID       string    `json:"candidate_id"`
	Purpose           Purpose   `json:"purpose"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	SettledAt         time.Time `json:"settled_at"`
}

// SettlementNotifier is the narrow interface to the candidate workflow
// service. Called at most once per payment.
type SettlementNotifier interface {
	OnPaymentSettled(ctx context.Context, ev SettledEvent) error
}
