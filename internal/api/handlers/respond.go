package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/taskhive/taskhive-be/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationMessage strips the sentinel prefix from a wrapped
// validation error so the client sees only the human-readable part.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
}

// taskErrorStatus maps task service failures to HTTP statuses. "Not
// found" and "forbidden" stay distinct: this API discloses existence
// and denies separately.
func taskErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "Not authorized to access this task"
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
