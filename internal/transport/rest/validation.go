package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return err
	}
	return nil
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type CustomerRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	PhoneNumber   string          `json:"phone_number"`
	Location      *string         `json:"location,omitempty"`
	HouseNumber   *string         `json:"house_number,omitempty"`
	MonthlyCharge decimal.Decimal `json:"monthly_charge"`
	Status        *string         `json:"status,omitempty"`
}

func ValidateCustomerRequest(r *http.Request) (*CustomerRequest, error) {
	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, err
	}
	if req.FirstName == "" {
		return nil, &ValidationError{Field: "first_name", Message: "first_name is required"}
	}
	if req.PhoneNumber == "" {
		return nil, &ValidationError{Field: "phone_number", Message: "phone_number is required"}
	}
	if req.MonthlyCharge.IsNegative() {
		return nil, &ValidationError{Field: "monthly_charge", Message: "monthly_charge must not be negative"}
	}
	if req.Status != nil {
		switch domain.CustomerStatus(*req.Status) {
		case domain.CustomerActive, domain.CustomerDormant:
		default:
			return nil, &ValidationError{Field: "status", Message: "status must be ACTIVE or DORMANT"}
		}
	}
	return &req, nil
}

func (req *CustomerRequest) ToDomain() *domain.Customer {
	c := &domain.Customer{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PhoneNumber:   req.PhoneNumber,
		Location:      req.Location,
		HouseNumber:   req.HouseNumber,
		MonthlyCharge: req.MonthlyCharge,
	}
	if req.Status != nil {
		c.Status = domain.CustomerStatus(*req.Status)
	}
	return c
}

type SettleRequest struct {
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment string          `json:"mode_of_payment"`
	PaidBy        string          `json:"paid_by"`
}

func ValidateSettleRequest(r *http.Request) (*SettleRequest, error) {
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, err
	}
	if req.CustomerID == "" {
		return nil, &ValidationError{Field: "customer_id", Message: "customer_id is required"}
	}
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	switch domain.PaymentMode(req.ModeOfPayment) {
	case domain.PaymentCash, domain.PaymentMpesa:
	default:
		return nil, &ValidationError{Field: "mode_of_payment", Message: "mode_of_payment must be CASH or MPESA"}
	}
	return &req, nil
}

type CallbackRequest struct {
	TransactionID   string `json:"TransID"`
	TransactionTime string `json:"TransTime"`
	Amount          string `json:"TransAmount"`
	MSISDN          string `json:"MSISDN"`
	BillRefNumber   string `json:"BillRefNumber"`
	FirstName       string `json:"FirstName"`
}

func ValidateCallbackRequest(r *http.Request) (*CallbackRequest, error) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, err
	}
	if req.TransactionID == "" {
		return nil, &ValidationError{Field: "TransID", Message: "TransID is required"}
	}
	if req.Amount == "" {
		return nil, &ValidationError{Field: "TransAmount", Message: "TransAmount is required"}
	}
	return &req, nil
}

type ReceiptsExportRequest struct {
	Fields     []string   `json:"fields"`
	CustomerID *string    `json:"customer_id,omitempty"`
	Mode       *string    `json:"mode_of_payment,omitempty"`
	From       *time.Time `json:"period_start_date,omitempty"`
	To         *time.Time `json:"period_end_date,omitempty"`
}

type rawReceiptsExportRequest struct {
	Fields     []string    `json:"fields"`
	CustomerID interface{} `json:"customer_id"`
	Mode       interface{} `json:"mode_of_payment"`
	From       interface{} `json:"period_start_date"`
	To         interface{} `json:"period_end_date"`
}

func ValidateReceiptsExportRequest(r *http.Request) (*ReceiptsExportRequest, error) {
	var raw rawReceiptsExportRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	if len(raw.Fields) == 0 {
		return nil, &ValidationError{Field: "fields", Message: "fields is required and must be an array"}
	}

	customerID, err := toStringPtr(raw.CustomerID)
	if err != nil {
		return nil, &ValidationError{Field: "customer_id", Message: "customer_id must be string or empty"}
	}

	mode, err := toStringPtr(raw.Mode)
	if err != nil {
		return nil, &ValidationError{Field: "mode_of_payment", Message: "mode_of_payment must be string or empty"}
	}
	if mode != nil {
		switch domain.PaymentMode(*mode) {
		case domain.PaymentCash, domain.PaymentMpesa:
		default:
			return nil, &ValidationError{Field: "mode_of_payment", Message: "mode_of_payment must be CASH or MPESA"}
		}
	}

	from, err := toDatePtr(raw.From)
	if err != nil {
		return nil, &ValidationError{Field: "period_start_date", Message: "period_start_date must be YYYY-MM-DD or empty"}
	}
	to, err := toDatePtr(raw.To)
	if err != nil {
		return nil, &ValidationError{Field: "period_end_date", Message: "period_end_date must be YYYY-MM-DD or empty"}
	}

	return &ReceiptsExportRequest{
		Fields:     raw.Fields,
		CustomerID: customerID,
		Mode:       mode,
		From:       from,
		To:         to,
	}, nil
}

func (r *ReceiptsExportRequest) ToRepositoryFilter() repository.ReceiptsFilter {
	f := repository.ReceiptsFilter{
		CustomerID: r.CustomerID,
		From:       r.From,
		To:         r.To,
	}
	if r.Mode != nil {
		m := domain.PaymentMode(*r.Mode)
		f.Mode = &m
	}
	return f
}

type CustomersExportRequest struct {
	Fields   []string `json:"fields"`
	Status   *string  `json:"status,omitempty"`
	Location *string  `json:"location,omitempty"`
	Search   *string  `json:"search,omitempty"`
}

type rawCustomersExportRequest struct {
	Fields   []string    `json:"fields"`
	Status   interface{} `json:"status"`
	Location interface{} `json:"location"`
	Search   interface{} `json:"search"`
}

func ValidateCustomersExportRequest(r *http.Request) (*CustomersExportRequest, error) {
	var raw rawCustomersExportRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	if len(raw.Fields) == 0 {
		return nil, &ValidationError{Field: "fields", Message: "fields is required and must be an array"}
	}

	status, err := toStringPtr(raw.Status)
	if err != nil {
		return nil, &ValidationError{Field: "status", Message: "status must be string or empty"}
	}
	if status != nil {
		switch domain.CustomerStatus(*status) {
		case domain.CustomerActive, domain.CustomerDormant:
		default:
			return nil, &ValidationError{Field: "status", Message: "status must be ACTIVE or DORMANT"}
		}
	}

	location, err := toStringPtr(raw.Location)
	if err != nil {
		return nil, &ValidationError{Field: "location", Message: "location must be string or empty"}
	}

	search, err := toStringPtr(raw.Search)
	if err != nil {
		return nil, &ValidationError{Field: "search", Message: "search must be string or empty"}
	}

	return &CustomersExportRequest{
		Fields:   raw.Fields,
		Status:   status,
		Location: location,
		Search:   search,
	}, nil
}

func (r *CustomersExportRequest) ToRepositoryFilter() repository.CustomersFilter {
	f := repository.CustomersFilter{
		Location: r.Location,
		Search:   r.Search,
	}
	if r.Status != nil {
		s := domain.CustomerStatus(*r.Status)
		f.Status = &s
	}
	return f
}

func toStringPtr(v interface{}) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return &t, nil
	case float64:
		s := strconv.FormatInt(int64(t), 10)
		return &s, nil
	default:
		return nil, &ValidationError{Message: "invalid type for string field"}
	}
}

func toDatePtr(v interface{}) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, &ValidationError{Message: "invalid type for date field"}
	}
}
