package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-shop-checkout/internal/checkout"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
	Meta    any    `json:"meta"`
}

type errorEnvelope struct {
	Status     string                `json:"status"`
	StatusCode int                   `json:"statusCode"`
	Message    string                `json:"message"`
	Code       string                `json:"code"`
	Errors     []checkout.FieldError `json:"errors"`
}

func respondJSON(log *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) respondSuccess(w http.ResponseWriter, status int, message string, payload, meta any) {
	respondJSON(h.log, w, status, successEnvelope{
		Status:  statusSuccess,
		Message: message,
		Payload: payload,
		Meta:    meta,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string, fields []checkout.FieldError) {
	writeError(h.log, w, status, code, message, fields)
}

func writeError(log *zap.Logger, w http.ResponseWriter, status int, code, message string, fields []checkout.FieldError) {
	if fields == nil {
		fields = []checkout.FieldError{}
	}
	respondJSON(log, w, status, errorEnvelope{
		Status:     statusError,
		StatusCode: status,
		Message:    message,
		Code:       code,
		Errors:     fields,
	})
}

// respondErr maps err through the error table and logs anything that ends
// up as a 500.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	var fields []checkout.FieldError
	var ce *checkout.Error
	if errors.As(err, &ce) {
		fields = ce.Fields
	}
	h.respondError(w, status, code, message, fields)
}
