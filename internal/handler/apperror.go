package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must have at most two decimal places"}
	ErrInvalidCurrency   = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrAlreadyResolved   = &AppError{http.StatusConflict, "ALREADY_RESOLVED", "Exception is already resolved"}
	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_TRANSITION", "Status change not allowed from the current status"}
	ErrLockContention    = &AppError{http.StatusConflict, "RECONCILIATION_IN_PROGRESS", "A reconciliation for this date is already running"}
	ErrSourceUnavailable = &AppError{http.StatusBadGateway, "SOURCE_UNAVAILABLE", "Ledger or bank feed unavailable, nothing was changed"}
	ErrDeliveryFailed    = &AppError{http.StatusBadGateway, "DELIVERY_FAILED", "Statement delivery failed, statement left unsent"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrVendorInactive    = &AppError{http.StatusConflict, "VENDOR_INACTIVE", "Vendor is not active"}
	ErrRequestTimeout    = &AppError{http.StatusGatewayTimeout, "TIMEOUT", "The operation timed out, nothing was changed"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
