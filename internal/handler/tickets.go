package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pesalink/loan-service/internal/models"
)

type openTicketRequest struct {
	UserID  int64  `json:"userId"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OpenTicket files a support ticket
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	var req openTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ticket, err := h.svc.OpenTicket(r.Context(), req.UserID, req.Subject, req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ticket)
}

// ListTickets returns tickets, optionally filtered by ?status=
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListTickets(r.Context(), models.TicketStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// CloseTicket marks a ticket closed
func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	actorID, ok := adminID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ticket id"})
		return
	}

	ticket, err := h.svc.CloseTicket(r.Context(), id, actorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}
