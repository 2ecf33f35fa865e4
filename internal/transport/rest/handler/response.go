package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"feudlive/internal/service"
	"feudlive/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service and store errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, store.ErrSessionFull):
		writeError(w, http.StatusConflict, "session full")
	case errors.Is(err, service.ErrCodeUnavailable):
		writeError(w, http.StatusServiceUnavailable, "no session code available")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
