package api

import (
	"encoding/json"
	"errors"
	"net/http"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
	"github.com/osr-alliance/backend-lib-leadgen/store"
)

// statusFor maps domain errors to HTTP statuses; anything unknown is a 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, leadgen.ErrEmptyName),
		errors.Is(err, leadgen.ErrEmptyProduct),
		errors.Is(err, leadgen.ErrEmptyAudience),
		errors.Is(err, leadgen.ErrIndexOutOfRange),
		errors.Is(err, leadgen.ErrUnknownListKind),
		errors.Is(err, leadgen.ErrNoLeads):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.WithError(err).Error("request failed")
	}
	writeJSONError(w, status, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
