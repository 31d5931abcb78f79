package domain

import "time"

// MpesaTransaction is an inbound mobile-money callback stored verbatim.
// Immutable once created; Processed transitions false to true exactly once
// when the ingestion loop has produced a Payment for it.
type MpesaTransaction struct {
	ID              string `json:"id"`
	TransactionID   string `json:"transaction_id"`
	TransactionTime string `json:"transaction_time"`
	Amount          string `json:"amount"`
	MSISDN          string `json:"msisdn"`
	BillRefNumber   string `json:"bill_ref_number"`
	FirstName       string `json:"first_name"`
	Processed       bool   `json:"processed"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
}
