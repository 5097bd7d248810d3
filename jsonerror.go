package vesta

import (
	"encoding/json"
	"net/http"
)

type JSONError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrorCodeActionNotFound    = "ACTION_NOT_FOUND"
	ErrorCodeUnauthorized      = "UNAUTHORIZED"
	ErrorCodeInternal          = "INTERNAL"
)

func WriteError(w http.ResponseWriter, code, message, requestID string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	jsonError := JSONError{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}

	if err := json.NewEncoder(w).Encode(jsonError); err != nil {
		// Fallback on error.
		http.Error(w, http.StatusText(status), status)
	}
}
