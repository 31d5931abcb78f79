package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash  PaymentMode = "CASH"
	PaymentMpesa PaymentMode = "MPESA"
)

// Payment is one inbound money movement. Receipted flips to true exactly once
// when the settlement engine applies the payment; a receipted payment is
// terminal. TransactionID links back to the originating M-Pesa callback and
// is unique, guarding against re-ingesting the same callback.
type Payment struct {
	ID            string          `json:"id"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment PaymentMode     `json:"mode_of_payment"`
	PaidBy        string          `json:"paid_by"`
	Receipted     bool            `json:"receipted"`
	TransactionID *string         `json:"transaction_id,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
