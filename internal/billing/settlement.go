package billing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

// Ledger is the transactional store boundary the engine settles against.
type Ledger interface {
	// WithTx runs fn inside one atomic store transaction. If fn returns an
	// error, none of its writes survive.
	WithTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of reads and writes available inside a settlement
// transaction. Getters return (nil, nil) when the record does not exist.
type LedgerTx interface {
	// GetCustomerForUpdate loads the customer and locks its row for the
	// remainder of the transaction, serializing concurrent settlements for
	// the same customer.
	GetCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	MarkPaymentReceipted(ctx context.Context, paymentID string) error
	// OutstandingInvoices returns UNPAID and PPAID invoices for the customer
	// ordered oldest first.
	OutstandingInvoices(ctx context.Context, customerID string) ([]domain.Invoice, error)
	UpdateInvoicePayment(ctx context.Context, invoiceID string, amountPaid decimal.Decimal, status domain.InvoiceStatus) error
	CreateReceipt(ctx context.Context, r *domain.Receipt) error
	ReceiptNumberExists(ctx context.Context, number string) (bool, error)
	UpdateClosingBalance(ctx context.Context, customerID string, balance decimal.Decimal) error
}

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phoneNumber, text string) error
}

// SettleRequest describes one settlement. Either PaymentID references an
// existing unreceipted payment (amount and mode come from the record), or
// Amount/Mode/PaidBy describe a manual payment recorded as part of the
// settlement.
type SettleRequest struct {
	CustomerID string
	PaymentID  string
	Amount     decimal.Decimal
	Mode       domain.PaymentMode
	PaidBy     string
}

type SettlementResult struct {
	CustomerID        string           `json:"customer_id"`
	PaymentID         string           `json:"payment_id"`
	Amount            decimal.Decimal  `json:"amount"`
	Receipts          []domain.Receipt `json:"receipts"`
	UpdatedInvoices   []domain.Invoice `json:"updated_invoices"`
	NewClosingBalance decimal.Decimal  `json:"new_closing_balance"`
}

// Engine applies payments against customer balances. Every settlement runs
// inside one ledger transaction; the SMS notification is sent after commit
// and its failure never fails the settlement.
type Engine struct {
	ledger      Ledger
	notifier    Notifier
	countryCode string
	currency    string
}

func NewEngine(ledger Ledger, notifier Notifier, countryCode, currency string) *Engine {
	return &Engine{
		ledger:      ledger,
		notifier:    notifier,
		countryCode: countryCode,
		currency:    currency,
	}
}

// Settle applies one payment to a customer's outstanding invoices and
// balance. Settling an already-receipted payment returns ErrAlreadySettled
// without touching any record, which makes retries of the same payment safe.
func (e *Engine) Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	var (
		result      *SettlementResult
		notifyPhone string
		notifyName  string
	)

	err := e.ledger.WithTx(ctx, func(tx LedgerTx) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		amount := req.Amount
		mode := req.Mode
		paidBy := req.PaidBy
		paymentID := req.PaymentID

		if req.PaymentID != "" {
			payment, err := tx.GetPayment(ctx, req.PaymentID)
			if err != nil {
				return err
			}
			if payment == nil {
				return ErrPaymentNotFound
			}
			if payment.Receipted {
				return ErrAlreadySettled
			}
			amount = payment.Amount
			mode = payment.ModeOfPayment
			if payment.PaidBy != "" {
				paidBy = payment.PaidBy
			}
			if !amount.IsPositive() {
				return ErrInvalidAmount
			}
			// First write: a crash after this point cannot double-apply the
			// payment on retry.
			if err := tx.MarkPaymentReceipted(ctx, payment.ID); err != nil {
				return err
			}
		} else {
			if !amount.IsPositive() {
				return ErrInvalidAmount
			}
			customerID := customer.ID
			payment := &domain.Payment{
				ID:            uuid.NewString(),
				CustomerID:    &customerID,
				Amount:        amount,
				ModeOfPayment: mode,
				PaidBy:        paidBy,
				Receipted:     true,
			}
			if err := tx.CreatePayment(ctx, payment); err != nil {
				return err
			}
			paymentID = payment.ID
		}

		invoices, err := tx.OutstandingInvoices(ctx, customer.ID)
		if err != nil {
			return err
		}

		allocations, remainder := Allocate(amount, invoices)

		byID := make(map[string]domain.Invoice, len(invoices))
		for _, inv := range invoices {
			byID[inv.ID] = inv
		}

		var (
			receipts []domain.Receipt
			updated  []domain.Invoice
		)
		for _, alloc := range allocations {
			inv := byID[alloc.InvoiceID]
			inv.AmountPaid = inv.AmountPaid.Add(alloc.Amount)
			inv.Status = domain.StatusFor(inv.InvoiceAmount, inv.AmountPaid)
			if err := tx.UpdateInvoicePayment(ctx, inv.ID, inv.AmountPaid, inv.Status); err != nil {
				return err
			}

			receipt, err := e.newReceipt(ctx, tx, customer.ID, paymentID, &inv.ID, alloc.Amount, mode, paidBy)
			if err != nil {
				return err
			}
			receipts = append(receipts, *receipt)
			updated = append(updated, inv)
		}

		if remainder.IsPositive() {
			receipt, err := e.newReceipt(ctx, tx, customer.ID, paymentID, nil, remainder, mode, paidBy)
			if err != nil {
				return err
			}
			receipts = append(receipts, *receipt)
		}

		// The full settled amount reduces the balance; allocation only
		// decides which invoices record progress.
		newBalance := customer.ClosingBalance.Sub(amount)
		if err := tx.UpdateClosingBalance(ctx, customer.ID, newBalance); err != nil {
			return err
		}

		result = &SettlementResult{
			CustomerID:        customer.ID,
			PaymentID:         paymentID,
			Amount:            amount,
			Receipts:          receipts,
			UpdatedInvoices:   updated,
			NewClosingBalance: newBalance,
		}
		notifyPhone = customer.PhoneNumber
		notifyName = customer.FirstName
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCustomerNotFound),
			errors.Is(err, ErrPaymentNotFound),
			errors.Is(err, ErrAlreadySettled),
			errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrReceiptNumber):
			return nil, err
		default:
			return nil, &TxError{Err: err}
		}
	}

	e.notify(ctx, notifyPhone, notifyName, result)

	return result, nil
}

func (e *Engine) newReceipt(
	ctx context.Context,
	tx LedgerTx,
	customerID, paymentID string,
	invoiceID *string,
	amount decimal.Decimal,
	mode domain.PaymentMode,
	paidBy string,
) (*domain.Receipt, error) {
	number, err := NewReceiptNumber(ctx, tx.ReceiptNumberExists)
	if err != nil {
		return nil, err
	}
	receipt := &domain.Receipt{
		ID:            uuid.NewString(),
		ReceiptNumber: number,
		CustomerID:    customerID,
		PaymentID:     paymentID,
		InvoiceID:     invoiceID,
		Amount:        amount,
		ModeOfPayment: mode,
		PaidBy:        paidBy,
	}
	if err := tx.CreateReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// notify sends the post-settlement SMS. Best-effort: failures are logged and
// never surfaced to the caller, the settlement has already committed.
func (e *Engine) notify(ctx context.Context, phone, name string, result *SettlementResult) {
	if e.notifier == nil || phone == "" || result == nil {
		return
	}

	text := fmt.Sprintf(
		"Dear %s, we have received your payment of %s %s. Your new balance is %s %s. Thank you.",
		name,
		e.currency, result.Amount.StringFixed(2),
		e.currency, result.NewClosingBalance.StringFixed(2),
	)

	to := NormalizePhone(phone, e.countryCode)
	if err := e.notifier.Send(ctx, to, text); err != nil {
		log.Printf("[SETTLE] notification to %s failed: %v", to, err)
	}
}
