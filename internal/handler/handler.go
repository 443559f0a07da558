package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pesalink/loan-service/internal/middleware"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps domain errors to HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	var transitionErr *models.InvalidTransitionError
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, models.ErrValidation):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrCreditLimitExceeded):
		respondJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &transitionErr):
		respondJSON(w, http.StatusConflict, map[string]string{"error": transitionErr.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// adminID resolves the acting admin from the request context.
func adminID(r *http.Request) (int64, bool) {
	subject, ok := middleware.AdminID(r.Context())
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
