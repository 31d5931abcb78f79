package rest

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestValidateCustomerRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/customers", strings.NewReader(
		`{"first_name":"Wanjiku","last_name":"Mwangi","phone_number":"0712345678","monthly_charge":"500"}`,
	))

	req, err := ValidateCustomerRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FirstName != "Wanjiku" {
		t.Errorf("got first name %q", req.FirstName)
	}
	if !req.MonthlyCharge.Equal(decimalFromString(t, "500")) {
		t.Errorf("got monthly charge %s", req.MonthlyCharge)
	}

	c := req.ToDomain()
	if c.PhoneNumber != "0712345678" {
		t.Errorf("got phone %q", c.PhoneNumber)
	}
}

func TestValidateCustomerRequest_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no first name", `{"phone_number":"0712345678"}`},
		{"no phone", `{"first_name":"Wanjiku"}`},
		{"negative charge", `{"first_name":"Wanjiku","phone_number":"0712345678","monthly_charge":"-5"}`},
		{"bad status", `{"first_name":"Wanjiku","phone_number":"0712345678","status":"GONE"}`},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/customers", strings.NewReader(tc.body))
		if _, err := ValidateCustomerRequest(r); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateSettleRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/payments", strings.NewReader(
		`{"customer_id":"cust-1","amount":"600","mode_of_payment":"CASH","paid_by":"Wanjiku"}`,
	))

	req, err := ValidateSettleRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.CustomerID != "cust-1" {
		t.Errorf("got customer %q", req.CustomerID)
	}
	if domain.PaymentMode(req.ModeOfPayment) != domain.PaymentCash {
		t.Errorf("got mode %q", req.ModeOfPayment)
	}
}

func TestValidateSettleRequest_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no customer", `{"amount":"600","mode_of_payment":"CASH"}`},
		{"zero amount", `{"customer_id":"c","amount":"0","mode_of_payment":"CASH"}`},
		{"negative amount", `{"customer_id":"c","amount":"-10","mode_of_payment":"CASH"}`},
		{"bad mode", `{"customer_id":"c","amount":"10","mode_of_payment":"CHEQUE"}`},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/payments", strings.NewReader(tc.body))
		if _, err := ValidateSettleRequest(r); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateCallbackRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/mpesa/callback", strings.NewReader(
		`{"TransID":"QX1","TransTime":"20260101120000","TransAmount":"600.00","MSISDN":"254712345678","BillRefNumber":"0712345678","FirstName":"Wanjiku"}`,
	))

	req, err := ValidateCallbackRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TransactionID != "QX1" {
		t.Errorf("got transaction id %q", req.TransactionID)
	}
	if req.Amount != "600.00" {
		t.Errorf("got amount %q", req.Amount)
	}
}

func TestValidateCallbackRequest_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"TransAmount":"600.00"}`,
		`{"TransID":"QX1"}`,
	} {
		r := httptest.NewRequest("POST", "/mpesa/callback", strings.NewReader(body))
		if _, err := ValidateCallbackRequest(r); err == nil {
			t.Errorf("body %s: expected validation error", body)
		}
	}
}

func TestValidateReceiptsExportRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/export/receipts", strings.NewReader(
		`{"fields":["receipt_number","amount"],"customer_id":"cust-1","mode_of_payment":"MPESA","period_start_date":"2026-01-01","period_end_date":"2026-01-31"}`,
	))

	req, err := ValidateReceiptsExportRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := req.ToRepositoryFilter()
	if f.CustomerID == nil || *f.CustomerID != "cust-1" {
		t.Error("customer filter not carried over")
	}
	if f.Mode == nil || *f.Mode != domain.PaymentMpesa {
		t.Error("mode filter not carried over")
	}
	if f.From == nil || f.From.Format("2006-01-02") != "2026-01-01" {
		t.Error("start date filter not carried over")
	}
}

func TestValidateReceiptsExportRequest_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no fields", `{"customer_id":"cust-1"}`},
		{"bad mode", `{"fields":["amount"],"mode_of_payment":"CHEQUE"}`},
		{"bad date", `{"fields":["amount"],"period_start_date":"not-a-date"}`},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/export/receipts", strings.NewReader(tc.body))
		if _, err := ValidateReceiptsExportRequest(r); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateCustomersExportRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/export/customers", strings.NewReader(
		`{"fields":["full_name","closing_balance"],"status":"ACTIVE","search":"wanjiku"}`,
	))

	req, err := ValidateCustomersExportRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := req.ToRepositoryFilter()
	if f.Status == nil || *f.Status != domain.CustomerActive {
		t.Error("status filter not carried over")
	}
	if f.Search == nil || *f.Search != "wanjiku" {
		t.Error("search filter not carried over")
	}
}
