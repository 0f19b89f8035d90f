package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"wagerly/service"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// envelope is the body of every response
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorData struct {
	Kind service.ErrorKind `json:"kind"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to write JSON response")
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondFailure(w http.ResponseWriter, status int, kind service.ErrorKind, message string) {
	respondJSON(w, status, envelope{Success: false, Message: message, Data: errorData{Kind: kind}})
}

// respondError maps a service error to its status code. Internal errors are
// logged with their cause and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		serviceErr = &service.Error{Kind: service.KindInternal, Message: "Internal server error", Err: err}
	}

	status := statusForKind(serviceErr.Kind)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"requestID": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"error":     err,
		}).Error("Request failed")
		respondFailure(w, status, service.KindInternal, "Internal server error")
		return
	}

	log.WithFields(log.Fields{
		"requestID": middleware.GetReqID(r.Context()),
		"path":      r.URL.Path,
		"kind":      serviceErr.Kind,
	}).Debug("Request rejected")
	respondFailure(w, status, serviceErr.Kind, serviceErr.Message)
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidState, service.KindInsufficientFunds, service.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, message string) {
	respondFailure(w, http.StatusBadRequest, service.KindValidation, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "Invalid request body.")
		return false
	}
	return true
}
