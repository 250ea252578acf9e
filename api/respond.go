package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ByGamer01/DamnBruh/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps domain errors to HTTP statuses. Unrecognized
// errors become 500s with a generic body so internals don't leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, models.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "username already taken")
	case errors.Is(err, models.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, models.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "game session not found")
	case errors.Is(err, models.ErrAlreadySettled):
		writeError(w, http.StatusConflict, "game session already settled")
	case errors.Is(err, models.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	default:
		logrus.WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
