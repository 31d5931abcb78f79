package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is an immutable audit record of one applied amount. InvoiceID is
// nil for unattached amounts (overpayment, or payment with no outstanding
// invoices). Several receipts may reference one payment when it was split
// across invoices.
type Receipt struct {
	ID            string          `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	CustomerID    string          `json:"customer_id"`
	PaymentID     string          `json:"payment_id"`
	InvoiceID     *string         `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment PaymentMode     `json:"mode_of_payment"`
	PaidBy        string          `json:"paid_by"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
}
