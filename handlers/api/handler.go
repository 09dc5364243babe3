package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("Failed to encode response")
	}
}

// respondError converts err into a JSON error body. This is the one place a
// failure is logged.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"
	kind := errors.KindInternal
	op := ""

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		msg = appErr.Message
		kind = appErr.Kind
		op = appErr.Op
	}

	entry := logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"status": code,
		"kind":   kind,
		"op":     op,
	}).WithError(err)

	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	respondJSON(w, r, code, errorResponse{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	const op = "readJSON"

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errors.E(op, err, "Request body too large", http.StatusRequestEntityTooLarge, errors.KindClient)
		case errors.Is(err, io.EOF):
			return errors.InvalidInput(op, err, "Request body is required")
		default:
			return errors.InvalidInput(op, err, "Invalid JSON format")
		}
	}
	return nil
}
