package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/jobtrack/internal/errs"
)

// Error messages surfaced to clients.
const (
	msgNotAuthorizedRoute = "Not authorized to access this route"
	msgNotAuthorizedApp   = "Not authorized to access this application"
	msgInvalidCreds       = "Invalid credentials"
	msgNotFound           = "Application not found"
	msgRateLimited        = "Too many login attempts, please try again later"
	msgBadBody            = "Invalid request body"
	msgServerError        = "Server Error"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

// parseJSON decodes a request body. Unknown keys are ignored so that
// client-sent owner or id fields are silently dropped.
func parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps service errors to an HTTP status and client message.
func statusFor(err error) (int, string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusBadRequest, "Resource already exists"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, msgNotAuthorizedRoute
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusUnauthorized, msgNotAuthorizedApp
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}
