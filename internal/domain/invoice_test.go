package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		amount string
		paid   string
		want   InvoiceStatus
	}{
		{"1000", "0", InvoiceUnpaid},
		{"1000", "0.01", InvoicePartial},
		{"1000", "600", InvoicePartial},
		{"1000", "999.99", InvoicePartial},
		{"1000", "1000", InvoicePaid},
		{"1000", "1200", InvoicePaid},
	}

	for _, tc := range cases {
		got := StatusFor(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.paid))
		if got != tc.want {
			t.Errorf("StatusFor(%s, %s) = %s, want %s", tc.amount, tc.paid, got, tc.want)
		}
	}
}

func TestInvoiceDue(t *testing.T) {
	inv := Invoice{
		InvoiceAmount: decimal.RequireFromString("1000"),
		AmountPaid:    decimal.RequireFromString("600"),
	}
	if !inv.Due().Equal(decimal.RequireFromString("400")) {
		t.Errorf("expected due 400, got %s", inv.Due())
	}
}
