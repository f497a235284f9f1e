package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/ledgersync/internal/catalog"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps err onto the API error taxonomy. Client-facing
// classes carry the error text as details.
func RespondDomainError(w http.ResponseWriter, err error) {
	var (
		appErr  *AppError
		details any
		remote  *domain.RemoteWriteError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr, details = ErrInvalidRequest, err.Error()
	case errors.Is(err, catalog.ErrInvalidCatalog), errors.Is(err, settings.ErrInvalidDocument):
		appErr, details = ErrValidationFailed, err.Error()
	case errors.Is(err, domain.ErrNotFound), ledger.IsNotFound(err):
		appErr, details = ErrResourceNotFound, err.Error()
	case errors.Is(err, domain.ErrMissingCorrelation):
		appErr, details = ErrMissingCorrelation, err.Error()
	case errors.Is(err, domain.ErrPropagationTimeout):
		appErr = ErrPropagationTimeout
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrUnknownAlias):
		slog.Error("ledger configuration error", "error", err)
		appErr = ErrConfiguration
	case errors.As(err, &remote):
		slog.Warn("remote ledger rejected request", "op", remote.Op, "error", remote.Err)
		appErr, details = ErrRemoteLedger, remote.Err.Error()
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, details)
}
