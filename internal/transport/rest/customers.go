package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
	"taka-billing/internal/service"
)

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	f := repository.CustomersFilter{}

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := domain.CustomerStatus(v)
		if status != domain.CustomerActive && status != domain.CustomerDormant {
			ErrorBadRequest(w, "status must be ACTIVE or DORMANT")
			return
		}
		f.Status = &status
	}
	if v := q.Get("location"); v != "" {
		f.Location = &v
	}
	if v := q.Get("search"); v != "" {
		f.Search = &v
	}

	customers, err := h.customers.List(r.Context(), f)
	if err != nil {
		log.Printf("[HTTP] listCustomers error: %v", err)
		ErrorInternal(w, "failed to list customers")
		return
	}

	Success(w, "", customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateCustomerRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	customer := req.ToDomain()
	if err := h.customers.Create(r.Context(), customer); err != nil {
		if errors.Is(err, service.ErrDuplicatePhone) {
			ErrorConflict(w, "phone number already registered")
			return
		}
		log.Printf("[HTTP] createCustomer error: %v", err)
		ErrorInternal(w, "failed to create customer")
		return
	}

	Response(w, "customer created", customer, 0, "success", http.StatusCreated)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] getCustomer error: %v", err)
		ErrorInternal(w, "failed to get customer")
		return
	}
	if customer == nil {
		ErrorNotFound(w, "customer not found")
		return
	}

	Success(w, "", customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	req, err := ValidateCustomerRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	customer := req.ToDomain()
	customer.ID = id
	if err := h.customers.Update(r.Context(), customer); err != nil {
		if errors.Is(err, service.ErrDuplicatePhone) {
			ErrorConflict(w, "phone number already registered")
			return
		}
		if errors.Is(err, service.ErrCustomerMissing) {
			ErrorNotFound(w, "customer not found")
			return
		}
		log.Printf("[HTTP] updateCustomer error: %v", err)
		ErrorInternal(w, "failed to update customer")
		return
	}

	Success(w, "customer updated", customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	if err := h.customers.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCustomerMissing) {
			ErrorNotFound(w, "customer not found")
			return
		}
		log.Printf("[HTTP] deleteCustomer error: %v", err)
		ErrorInternal(w, "failed to delete customer")
		return
	}

	Success(w, "customer deleted", nil)
}

func (h *Handler) listCustomerInvoices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	invoices, err := h.customers.Invoices(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] listCustomerInvoices error: %v", err)
		ErrorInternal(w, "failed to list invoices")
		return
	}

	Success(w, "", invoices)
}

type raiseInvoiceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// raiseInvoice bills a customer. An omitted or zero amount charges the
// customer's monthly rate.
func (h *Handler) raiseInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	var req raiseInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	invoice, err := h.customers.RaiseInvoice(r.Context(), id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerMissing):
			ErrorNotFound(w, "customer not found")
		case errors.Is(err, billing.ErrInvalidAmount):
			ErrorBadRequest(w, "amount must not be negative")
		default:
			log.Printf("[HTTP] raiseInvoice error: %v", err)
			ErrorInternal(w, "failed to raise invoice")
		}
		return
	}

	Response(w, "invoice raised", invoice, 0, "success", http.StatusCreated)
}

func (h *Handler) listCustomerReceipts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customer_id")

	receipts, err := h.customers.Receipts(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] listCustomerReceipts error: %v", err)
		ErrorInternal(w, "failed to list receipts")
		return
	}

	Success(w, "", receipts)
}

const maxImportSize = 10 << 20 // 10 MiB

func (h *Handler) importCustomers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		ErrorBadRequest(w, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		ErrorBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	result, err := h.customers.ImportCSV(r.Context(), file)
	if err != nil {
		log.Printf("[HTTP] importCustomers error: %v", err)
		ErrorBadRequest(w, err.Error())
		return
	}

	Success(w, "import finished", result)
}
