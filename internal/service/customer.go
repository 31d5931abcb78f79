package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

var (
	ErrDuplicatePhone  = errors.New("phone number already registered")
	ErrCustomerMissing = errors.New("customer not found")
)

// CustomerService owns customer CRUD and CSV bulk onboarding. Balance
// mutation stays with the settlement engine; this service never touches
// closing balances.
type CustomerService struct {
	store       *repository.Store
	countryCode string
}

func NewCustomerService(store *repository.Store, countryCode string) *CustomerService {
	return &CustomerService{store: store, countryCode: countryCode}
}

func (s *CustomerService) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.CustomerActive
	}
	c.PhoneNumber = billing.NormalizePhone(c.PhoneNumber, s.countryCode)
	if c.PhoneNumber == "" {
		return errors.New("phone number is required")
	}

	existing, err := s.store.Customers.GetByPhone(ctx, c.PhoneNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicatePhone
	}

	return s.store.Customers.Create(ctx, c)
}

func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.store.Customers.GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, f repository.CustomersFilter) ([]domain.Customer, error) {
	return s.store.Customers.List(ctx, f)
}

func (s *CustomerService) Update(ctx context.Context, c *domain.Customer) error {
	c.PhoneNumber = billing.NormalizePhone(c.PhoneNumber, s.countryCode)

	existing, err := s.store.Customers.GetByPhone(ctx, c.PhoneNumber)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return ErrDuplicatePhone
	}

	err = s.store.Customers.Update(ctx, c)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCustomerMissing
	}
	return err
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	err := s.store.Customers.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCustomerMissing
	}
	return err
}

// RaiseInvoice creates one invoice for the customer and adds its amount to
// the closing balance in the same transaction. A zero amount bills the
// customer's monthly charge.
func (s *CustomerService) RaiseInvoice(ctx context.Context, customerID string, amount decimal.Decimal) (*domain.Invoice, error) {
	if amount.IsNegative() {
		return nil, billing.ErrInvalidAmount
	}

	var invoice *domain.Invoice
	err := s.store.WithTx(ctx, func(tx *repository.Tx) error {
		customer, err := tx.Customers.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerMissing
		}

		if amount.IsZero() {
			amount = customer.MonthlyCharge
		}
		if !amount.IsPositive() {
			return billing.ErrInvalidAmount
		}

		invoice = &domain.Invoice{
			ID:            uuid.NewString(),
			CustomerID:    customer.ID,
			InvoiceAmount: amount,
			AmountPaid:    decimal.Zero,
			Status:        domain.InvoiceUnpaid,
		}
		if err := tx.Invoices.Create(ctx, invoice); err != nil {
			return err
		}

		return tx.Customers.UpdateClosingBalance(ctx, customer.ID, customer.ClosingBalance.Add(amount))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *CustomerService) Invoices(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	return s.store.Invoices.ListByCustomer(ctx, customerID)
}

func (s *CustomerService) Receipts(ctx context.Context, customerID string) ([]domain.Receipt, error) {
	return s.store.Receipts.List(ctx, repository.ReceiptsFilter{CustomerID: &customerID})
}

// ImportResult summarizes one CSV bulk upload.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

var csvRequiredColumns = []string{"first_name", "phone_number", "monthly_charge"}

// ImportCSV onboards customers in bulk. Expected header:
// first_name,last_name,phone_number,location,house_number,monthly_charge.
// Bad rows are skipped and reported, they never abort the whole upload.
func (s *CustomerService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range csvRequiredColumns {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		charge, err := decimal.NewFromString(field(record, "monthly_charge"))
		if err != nil || charge.IsNegative() {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid monthly_charge", line))
			continue
		}

		customer := &domain.Customer{
			FirstName:     field(record, "first_name"),
			LastName:      field(record, "last_name"),
			PhoneNumber:   field(record, "phone_number"),
			MonthlyCharge: charge,
			Status:        domain.CustomerActive,
		}
		if loc := field(record, "location"); loc != "" {
			customer.Location = &loc
		}
		if hn := field(record, "house_number"); hn != "" {
			customer.HouseNumber = &hn
		}

		if err := s.Create(ctx, customer); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Created++
	}

	return result, nil
}
