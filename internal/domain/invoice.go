package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "UNPAID"
	InvoicePartial   InvoiceStatus = "PPAID"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// Invoice belongs to exactly one customer. AmountPaid never decreases and
// never exceeds InvoiceAmount; Status is derived from the two amounts.
type Invoice struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        InvoiceStatus   `json:"status"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Due returns the unpaid portion of the invoice.
func (i *Invoice) Due() decimal.Decimal {
	return i.InvoiceAmount.Sub(i.AmountPaid)
}

// StatusFor derives the invoice status from amounts: PAID iff fully covered,
// PPAID iff partially covered, UNPAID iff untouched.
func StatusFor(invoiceAmount, amountPaid decimal.Decimal) InvoiceStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(invoiceAmount):
		return InvoicePaid
	case amountPaid.IsPositive():
		return InvoicePartial
	default:
		return InvoiceUnpaid
	}
}
