package service

import (
	"context"
	"strings"
	"testing"
)

func TestImportCSV_MissingRequiredColumn(t *testing.T) {
	svc := NewCustomerService(nil, "254")

	for _, missing := range csvRequiredColumns {
		var header []string
		for _, col := range csvRequiredColumns {
			if col != missing {
				header = append(header, col)
			}
		}

		_, err := svc.ImportCSV(context.Background(), strings.NewReader(strings.Join(header, ",")+"\n"))
		if err == nil {
			t.Errorf("csv without %s should be rejected", missing)
		}
	}
}

func TestImportCSV_HeaderOnly(t *testing.T) {
	svc := NewCustomerService(nil, "254")

	body := "first_name,last_name,phone_number,location,house_number,monthly_charge\n"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("header-only csv: %v", err)
	}
	if result.Created != 0 || result.Skipped != 0 {
		t.Errorf("expected empty result, got created=%d skipped=%d", result.Created, result.Skipped)
	}
}

func TestImportCSV_BadChargeRowSkipped(t *testing.T) {
	svc := NewCustomerService(nil, "254")

	body := "first_name,phone_number,monthly_charge\n" +
		"Wanjiku,0712345678,not-a-number\n"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "monthly_charge") {
		t.Errorf("expected a monthly_charge error, got %v", result.Errors)
	}
}
