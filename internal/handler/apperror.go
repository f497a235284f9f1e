package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrUnauthorized     = &AppError{http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrMethodNotAllowed = &AppError{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrConfiguration      = &AppError{http.StatusInternalServerError, "CONFIGURATION_ERROR", "Ledger configuration is incomplete"}
	ErrMissingCorrelation = &AppError{http.StatusUnprocessableEntity, "MISSING_CORRELATION", "A required cross-ledger link is missing"}
	ErrPropagationTimeout = &AppError{http.StatusGatewayTimeout, "PROPAGATION_TIMEOUT", "Timed out waiting for the remote ledger"}
	ErrRemoteLedger       = &AppError{http.StatusBadGateway, "REMOTE_LEDGER_ERROR", "Remote ledger rejected the request"}
)
