package rest

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taka-billing/internal/transport/auth"
)

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.exportList.GetExports(r.Context(), userID)
	if err != nil {
		log.Printf("[HTTP] listExports error: %v", err)
		ErrorInternal(w, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := "exports:" + exportIDParam

	export, err := h.exportList.GetExport(r.Context(), exportID, userID)
	if err != nil {
		log.Printf("[HTTP] getExport error: %v", err)
		ErrorNotFound(w, "export not found")
		return
	}

	Success(w, "", export)
}

func (h *Handler) exportReceipts(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateReceiptsExportRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID, err := h.receipts.StartReceiptsExport(r.Context(), req.Fields, req.ToRepositoryFilter(), userID)
	if err != nil {
		log.Printf("[HTTP] startReceiptsExport error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) exportCustomers(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateCustomersExportRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID, err := h.custExport.StartCustomersExport(r.Context(), req.Fields, req.ToRepositoryFilter(), userID)
	if err != nil {
		log.Printf("[HTTP] startCustomersExport error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{"export_id": exportID})
}
