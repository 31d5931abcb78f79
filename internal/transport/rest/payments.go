package rest

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	f := repository.PaymentsFilter{}

	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		f.CustomerID = &v
	}
	if v := q.Get("receipted"); v != "" {
		receipted := v == "true" || v == "1"
		f.Receipted = &receipted
	}
	if v := q.Get("mode_of_payment"); v != "" {
		mode := domain.PaymentMode(v)
		if mode != domain.PaymentCash && mode != domain.PaymentMpesa {
			ErrorBadRequest(w, "mode_of_payment must be CASH or MPESA")
			return
		}
		f.Mode = &mode
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			ErrorBadRequest(w, "from must be YYYY-MM-DD")
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			ErrorBadRequest(w, "to must be YYYY-MM-DD")
			return
		}
		f.To = &t
	}

	payments, err := h.settler.ListPayments(r.Context(), f)
	if err != nil {
		log.Printf("[HTTP] listPayments error: %v", err)
		ErrorInternal(w, "failed to list payments")
		return
	}

	Success(w, "", payments)
}

// settlePayment records a manual payment and settles it in one call.
func (h *Handler) settlePayment(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateSettleRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	result, err := h.settler.Settle(r.Context(), billing.SettleRequest{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Mode:       domain.PaymentMode(req.ModeOfPayment),
		PaidBy:     req.PaidBy,
	})
	if err != nil {
		h.settleError(w, err)
		return
	}

	Success(w, "payment settled", result)
}

func (h *Handler) settleRecordedPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "payment_id")

	result, err := h.settler.SettleRecorded(r.Context(), paymentID)
	if err != nil {
		h.settleError(w, err)
		return
	}

	Success(w, "payment settled", result)
}

type attachRequest struct {
	CustomerID string `json:"customer_id"`
}

func (h *Handler) attachPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "payment_id")

	var req attachRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}
	if req.CustomerID == "" {
		ErrorBadRequest(w, "customer_id is required")
		return
	}

	if err := h.settler.AttachPayment(r.Context(), paymentID, req.CustomerID); err != nil {
		h.settleError(w, err)
		return
	}

	Success(w, "payment attached", nil)
}

func (h *Handler) settleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrCustomerNotFound):
		ErrorNotFound(w, "customer not found")
	case errors.Is(err, billing.ErrPaymentNotFound):
		ErrorNotFound(w, "payment not found")
	case errors.Is(err, billing.ErrAlreadySettled):
		ErrorConflict(w, "payment already settled")
	case errors.Is(err, billing.ErrInvalidAmount):
		ErrorBadRequest(w, "amount must be positive")
	default:
		log.Printf("[HTTP] settlement error: %v", err)
		ErrorInternal(w, "settlement failed")
	}
}
