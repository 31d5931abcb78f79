package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerStatus string

const (
	CustomerActive  CustomerStatus = "ACTIVE"
	CustomerDormant CustomerStatus = "DORMANT"
)

// Customer is one billed account. ClosingBalance is signed: positive means
// the customer owes, negative means credit from overpayment. Only the
// settlement engine and the invoice-generation job may change it.
type Customer struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber string  `json:"phone_number"`
	Location    *string `json:"location,omitempty"`
	HouseNumber *string `json:"house_number,omitempty"`

	MonthlyCharge  decimal.Decimal `json:"monthly_charge"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Status         CustomerStatus  `json:"status"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
