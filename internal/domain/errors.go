package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("amount is not representable in two fractional digits")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrAlreadyResolved   = errors.New("exception already resolved")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSourceUnavailable = errors.New("reconciliation source unavailable")
	ErrLockContention    = errors.New("reconciliation already running for date")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrDeliveryFailed    = errors.New("statement delivery failed")
	ErrVendorInactive    = errors.New("vendor is not active")
)
