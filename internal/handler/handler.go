package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already on the wire; an encode failure here has
	// nowhere to go.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// domainStatus maps a domain error code to an HTTP status.
var domainStatus = map[string]int{
	model.ErrCodeInvalidJSON:          http.StatusBadRequest,
	model.ErrCodeValidationFailed:     http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:      http.StatusBadRequest,
	model.ErrCodeProductNotFound:      http.StatusBadRequest,
	model.ErrCodeOrderNotFound:        http.StatusNotFound,
	model.ErrCodeAlreadyPaid:          http.StatusConflict,
	model.ErrCodeInsufficientStock:    http.StatusConflict,
	model.ErrCodeInvalidTransition:    http.StatusConflict,
	model.ErrCodeOrderNumberExhausted: http.StatusServiceUnavailable,
	model.ErrCodeForbidden:            http.StatusForbidden,
}

// writeServiceError translates service-layer errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainStatus[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		writeError(w, status, domainErr.Code, domainErr.Message, logger)
		return
	}

	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, http.StatusConflict, model.ErrCodeInsufficientStock, stockErr.Error(), logger)
		return
	}

	var transitionErr *model.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		writeError(w, http.StatusConflict, model.ErrCodeInvalidTransition, transitionErr.Error(), logger)
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}
