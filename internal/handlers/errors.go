package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps the service error taxonomy to a status code.
// Only validation failures expose their message.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ErrConflict})
	case errors.Is(err, service.ErrUnauthorized):
		log.Debug(logMsg, "error", err)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: ErrForbidden})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotFound})
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a size-limited JSON body that must not carry unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidJSON})
		return false
	}
	return true
}
