package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONResponse writes data as the JSON body with the given status code.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("failed to encode JSON response")
	}
}

func errorResponse(w http.ResponseWriter, statusCode int, message, field string) {
	JSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Field:   field,
	})
}

// WriteError maps a service error onto the HTTP error envelope. Only
// domain sentinels reach the client verbatim; anything else is logged and
// reported as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		errorResponse(w, http.StatusBadRequest, verr.Message, verr.Field)
		return
	}

	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			errorResponse(w, m.status, m.err.Error(), "")
			return
		}
	}

	log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err).Error("request failed")
	errorResponse(w, http.StatusInternalServerError, "something went wrong", "")
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrDuplicateVote, http.StatusConflict},
	{domain.ErrPollNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInvalidOption, http.StatusBadRequest},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrEmailTaken, http.StatusConflict},
}

func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid request body")
	}
	return nil
}

func pollIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "invalid poll id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, domain.NewValidationError(key, key+" must be an integer")
	}
	return n, true, nil
}
