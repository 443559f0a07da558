package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pesalink/loan-service/internal/models"
)

type createLoanRequest struct {
	UserID       int64   `json:"userId"`
	Amount       float64 `json:"amount"`
	InterestRate float64 `json:"interestRate"`
	PeriodDays   int     `json:"repaymentPeriod"`
	Network      string  `json:"network"`
}

type rejectLoanRequest struct {
	Reason string `json:"reason"`
}

// CreateLoan handles loan applications
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	loan, err := h.svc.CreateLoan(r.Context(), req.UserID, req.Amount, req.InterestRate, req.PeriodDays, req.Network)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loan)
}

// GetLoan returns a single loan by its business identifier
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.svc.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// ListLoans returns loans matching optional query filters
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	filter := loanFilterFromQuery(r)
	loans, err := h.svc.ListLoans(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loans)
}

// ApproveLoan approves a requested loan
func (h *Handler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	actorID, ok := adminID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	loan, err := h.svc.ApproveLoan(r.Context(), mux.Vars(r)["loanId"], actorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// RejectLoan rejects a requested loan with a reason
func (h *Handler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	var req rejectLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	loan, err := h.svc.RejectLoan(r.Context(), mux.Vars(r)["loanId"], req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// DisburseLoan disburses an approved loan
func (h *Handler) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	actorID, ok := adminID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	loan, err := h.svc.DisburseLoan(r.Context(), mux.Vars(r)["loanId"], actorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// LoanStats returns aggregate portfolio figures
func (h *Handler) LoanStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetLoanStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ExportLoans streams loans matching the filter as CSV
func (h *Handler) ExportLoans(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="loans.csv"`)
	if err := h.svc.ExportLoans(r.Context(), loanFilterFromQuery(r), w); err != nil {
		respondError(w, err)
	}
}

func loanFilterFromQuery(r *http.Request) models.LoanFilter {
	q := r.URL.Query()
	filter := models.LoanFilter{
		Status:  models.LoanStatus(q.Get("status")),
		Network: q.Get("network"),
	}
	if userID := q.Get("userId"); userID != "" {
		fmt.Sscanf(userID, "%d", &filter.UserID)
	}
	return filter
}
