package billing

import (
	"sort"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

// Allocation is the amount applied to one invoice.
type Allocation struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Allocate splits a payment amount across outstanding invoices, oldest debt
// first. Each invoice receives min(remaining, due); the walk stops once the
// amount is exhausted. Whatever is left after the last invoice is returned as
// the remainder and must be recorded as an unattached credit, never dropped.
//
// The function is pure: given the same invoice snapshot and amount it always
// produces the same allocations.
func Allocate(amount decimal.Decimal, invoices []domain.Invoice) ([]Allocation, decimal.Decimal) {
	sorted := make([]domain.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	remaining := amount
	var allocations []Allocation
	for _, inv := range sorted {
		if !remaining.IsPositive() {
			break
		}
		due := inv.Due()
		if !due.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, due)
		allocations = append(allocations, Allocation{InvoiceID: inv.ID, Amount: applied})
		remaining = remaining.Sub(applied)
	}

	return allocations, remaining
}
