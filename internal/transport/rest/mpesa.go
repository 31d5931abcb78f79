package rest

import (
	"log"
	"net/http"

	"taka-billing/internal/domain"
)

// mpesaCallback stores the raw gateway notification and acknowledges it.
// The ingestion loop picks the record up on its next sweep; a duplicate
// TransID is silently absorbed by the store. The gateway retries anything
// that is not a 200, so validation failures are the only rejections.
func (h *Handler) mpesaCallback(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateCallbackRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	t := &domain.MpesaTransaction{
		TransactionID:   req.TransactionID,
		TransactionTime: req.TransactionTime,
		Amount:          req.Amount,
		MSISDN:          req.MSISDN,
		BillRefNumber:   req.BillRefNumber,
		FirstName:       req.FirstName,
	}

	if err := h.settler.RecordCallback(r.Context(), t); err != nil {
		log.Printf("[HTTP] mpesaCallback store error: %v", err)
		ErrorInternal(w, "failed to record transaction")
		return
	}

	Success(w, "accepted", map[string]interface{}{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
