package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/hostel-leave/lifecycle"
)

// kindInvalidRequest tags malformed bodies, dates and query parameters that
// never reached the lifecycle engine.
const kindInvalidRequest = "invalid_request"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeBadRequest reports input that failed decoding or shape validation.
// Validation failures are listed per JSON field.
func writeBadRequest(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Kind: kindInvalidRequest}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		resp.Details = fields
	} else if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// statusFor maps a service error to its HTTP status.
//
//	MissingField, InvalidDateRange → 400
//	Forbidden                      → 403
//	not found                      → 404
//	InvalidState, stale write      → 409
//	anything else                  → 500
func statusFor(err error) int {
	if kind, ok := lifecycle.KindOf(err); ok {
		switch kind {
		case lifecycle.KindMissingField, lifecycle.KindInvalidDateRange:
			return http.StatusBadRequest
		case lifecycle.KindForbidden:
			return http.StatusForbidden
		case lifecycle.KindInvalidState:
			return http.StatusConflict
		}
	}
	if lifecycle.IsNotFound(err) {
		return http.StatusNotFound
	}
	if errors.Is(err, lifecycle.ErrConcurrentModification) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with the status statusFor picks. Engine
// errors expose their kind and field; internal errors expose only message.
// Input and permission failures log at debug, state conflicts and misses at
// info.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger(r).Error(message, zap.Error(err))
		writeJSON(w, status, ErrorResponse{Error: message})
		return
	}

	log := h.logger(r).With(zap.Int("status", status), zap.Error(err))
	if lifecycle.IsClientError(err) {
		log.Debug(message)
	} else {
		log.Info(message)
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var lerr *lifecycle.Error
	if errors.As(err, &lerr) {
		resp.Kind = string(lerr.Kind)
		resp.Field = lerr.Field
	} else if kind, ok := lifecycle.KindOf(err); ok {
		resp.Kind = string(kind)
	} else if status == http.StatusNotFound {
		resp.Kind = "not_found"
	}
	writeJSON(w, status, resp)
}
