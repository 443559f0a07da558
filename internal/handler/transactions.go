package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pesalink/loan-service/internal/models"
)

type recordRepaymentRequest struct {
	LoanID        string  `json:"loanId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

type reconcileRequest struct {
	Status models.TransactionStatus `json:"status"`
	Amount float64                  `json:"amount"`
}

// RecordRepayment opens a pending repayment transaction against a loan
func (h *Handler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	var req recordRepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	txn, err := h.svc.RecordRepayment(r.Context(), req.LoanID, req.Amount, req.PaymentMethod)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// ReconcileTransaction applies a terminal status to a pending transaction
func (h *Handler) ReconcileTransaction(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.ReconcileTransaction(r.Context(), mux.Vars(r)["reference"], req.Status, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
