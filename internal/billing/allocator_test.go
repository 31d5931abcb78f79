package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func invoice(id string, amount, paid string, createdAt time.Time) domain.Invoice {
	return domain.Invoice{
		ID:            id,
		CustomerID:    "cust-1",
		InvoiceAmount: dec(amount),
		AmountPaid:    dec(paid),
		Status:        domain.StatusFor(dec(amount), dec(paid)),
		CreatedAt:     createdAt,
	}
}

func TestAllocate_PartialPayment(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{invoice("inv-1", "1000", "0", now)}

	allocations, remainder := Allocate(dec("600"), invoices)

	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if !allocations[0].Amount.Equal(dec("600")) {
		t.Errorf("expected 600 applied, got %s", allocations[0].Amount)
	}
	if !remainder.IsZero() {
		t.Errorf("expected zero remainder, got %s", remainder)
	}
}

func TestAllocate_OverpaymentProducesRemainder(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{invoice("inv-1", "1000", "600", now)}

	allocations, remainder := Allocate(dec("500"), invoices)

	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if !allocations[0].Amount.Equal(dec("400")) {
		t.Errorf("expected 400 applied (capped at due), got %s", allocations[0].Amount)
	}
	if !remainder.Equal(dec("100")) {
		t.Errorf("expected remainder 100, got %s", remainder)
	}
}

func TestAllocate_EmptyInvoiceList(t *testing.T) {
	allocations, remainder := Allocate(dec("250"), nil)

	if len(allocations) != 0 {
		t.Fatalf("expected no allocations, got %d", len(allocations))
	}
	if !remainder.Equal(dec("250")) {
		t.Errorf("expected full amount as remainder, got %s", remainder)
	}
}

func TestAllocate_OldestFirst(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		invoice("inv-new", "300", "0", now),
		invoice("inv-old", "300", "0", now.Add(-48*time.Hour)),
		invoice("inv-mid", "300", "0", now.Add(-24*time.Hour)),
	}

	allocations, remainder := Allocate(dec("700"), invoices)

	if len(allocations) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocations))
	}
	wantOrder := []string{"inv-old", "inv-mid", "inv-new"}
	wantAmounts := []string{"300", "300", "100"}
	for i, alloc := range allocations {
		if alloc.InvoiceID != wantOrder[i] {
			t.Errorf("allocation %d: expected invoice %s, got %s", i, wantOrder[i], alloc.InvoiceID)
		}
		if !alloc.Amount.Equal(dec(wantAmounts[i])) {
			t.Errorf("allocation %d: expected amount %s, got %s", i, wantAmounts[i], alloc.Amount)
		}
	}
	if !remainder.IsZero() {
		t.Errorf("expected zero remainder, got %s", remainder)
	}
}

func TestAllocate_SkipsFullyPaidInvoices(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		invoice("inv-paid", "500", "500", now.Add(-48*time.Hour)),
		invoice("inv-open", "500", "0", now),
	}

	allocations, remainder := Allocate(dec("200"), invoices)

	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if allocations[0].InvoiceID != "inv-open" {
		t.Errorf("expected allocation to inv-open, got %s", allocations[0].InvoiceID)
	}
	if !remainder.IsZero() {
		t.Errorf("expected zero remainder, got %s", remainder)
	}
}

func TestAllocate_SumOfAllocationsNeverExceedsAmount(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		invoice("a", "120.50", "20.25", now.Add(-3*time.Hour)),
		invoice("b", "75.00", "0", now.Add(-2*time.Hour)),
		invoice("c", "300.10", "299.99", now.Add(-1*time.Hour)),
	}

	for _, amount := range []string{"0.01", "50", "100.25", "175.36", "1000"} {
		allocations, remainder := Allocate(dec(amount), invoices)

		total := remainder
		for _, alloc := range allocations {
			if !alloc.Amount.IsPositive() {
				t.Errorf("amount %s: zero or negative allocation on %s", amount, alloc.InvoiceID)
			}
			total = total.Add(alloc.Amount)
		}
		if !total.Equal(dec(amount)) {
			t.Errorf("amount %s: allocations plus remainder sum to %s", amount, total)
		}
		if remainder.IsNegative() {
			t.Errorf("amount %s: negative remainder %s", amount, remainder)
		}
	}
}

func TestAllocate_DeterministicOverSameSnapshot(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		invoice("a", "400", "100", now.Add(-2*time.Hour)),
		invoice("b", "250", "0", now.Add(-1*time.Hour)),
	}

	first, firstRem := Allocate(dec("333.33"), invoices)
	second, secondRem := Allocate(dec("333.33"), invoices)

	if len(first) != len(second) {
		t.Fatalf("allocation counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].InvoiceID != second[i].InvoiceID || !first[i].Amount.Equal(second[i].Amount) {
			t.Errorf("allocation %d differs between runs", i)
		}
	}
	if !firstRem.Equal(secondRem) {
		t.Errorf("remainders differ: %s vs %s", firstRem, secondRem)
	}
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		invoice("b", "100", "0", now),
		invoice("a", "100", "0", now.Add(-time.Hour)),
	}

	Allocate(dec("150"), invoices)

	if invoices[0].ID != "b" || invoices[1].ID != "a" {
		t.Error("input slice order was mutated")
	}
}
