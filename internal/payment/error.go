package payment

import "errors"

var (
	// -- Initiation --
	ErrInvalidPurpose = errors.New("invalid payment purpose")
	ErrInvalidAmount  = errors.New("invalid payment amount or currency")
	ErrInvalidContact = errors.New("candidate contact details incomplete")
	// ErrPaymentNotPersisted wraps a storage failure that happened after the
	// gateway call succeeded; the gateway reference travels with the result
	// so the transaction can be reconciled manually.
	ErrPaymentNotPersisted = errors.New("payment not persisted after gateway call")

	// -- Lookup & webhook --
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAmountMismatch  = errors.New("webhook amount does not match payment")

	// -- Receipt --
	ErrPaymentNotSuccessful = errors.New("payment is not successful")
)
