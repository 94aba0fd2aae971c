package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bloodbank/internal/domain"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidUnits       = "invalid_units"
	codeUnknownBloodGroup  = "unknown_blood_group"
	codeInvalidStatus      = "invalid_status_filter"
	codeNotFound           = "not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeAlreadyFinalized   = "already_finalized"
	codeRateLimited        = "rate_limited"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available *int   `json:"available,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorPayload(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorPayload(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps typed domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body.
func writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeErrorPayload(w, http.StatusConflict, errorResponse{
			Error:     err.Error(),
			Code:      codeInsufficientStock,
			Available: &insufficient.Available,
		})
		return
	}

	var finalized *domain.AlreadyFinalizedError
	if errors.As(err, &finalized) {
		writeError(w, http.StatusConflict, codeAlreadyFinalized, err.Error())
		return
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
		return
	}

	var limited *domain.RateLimitedError
	if errors.As(err, &limited) {
		if limited.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limited.Limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
		}
		if !limited.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(limited.ResetAt.Unix(), 10))
		}
		if limited.RetryAfter > 0 {
			seconds := int(limited.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeError(w, http.StatusTooManyRequests, codeRateLimited, err.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidUnits), errors.Is(err, domain.ErrNegativeUnits):
		writeError(w, http.StatusBadRequest, codeInvalidUnits, err.Error())
	case errors.Is(err, domain.ErrUnknownBloodGroup):
		writeError(w, http.StatusBadRequest, codeUnknownBloodGroup, err.Error())
	case errors.Is(err, domain.ErrInvalidStatusFilter):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
