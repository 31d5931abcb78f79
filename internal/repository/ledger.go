package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
)

// Ledger adapts the Store to the narrow interfaces the settlement engine and
// the M-Pesa poller consume.
type Ledger struct {
	store *Store
}

func NewLedger(store *Store) *Ledger {
	return &Ledger{store: store}
}

// WithTx satisfies billing.Ledger.
func (l *Ledger) WithTx(ctx context.Context, fn func(tx billing.LedgerTx) error) error {
	return l.store.WithTx(ctx, func(tx *Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx *Tx
}

func (t *ledgerTx) GetCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error) {
	return t.tx.Customers.GetForUpdate(ctx, customerID)
}

func (t *ledgerTx) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return t.tx.Payments.GetByID(ctx, paymentID)
}

func (t *ledgerTx) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return t.tx.Payments.Create(ctx, p)
}

func (t *ledgerTx) MarkPaymentReceipted(ctx context.Context, paymentID string) error {
	return t.tx.Payments.MarkReceipted(ctx, paymentID)
}

func (t *ledgerTx) OutstandingInvoices(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	return t.tx.Invoices.Outstanding(ctx, customerID)
}

func (t *ledgerTx) UpdateInvoicePayment(ctx context.Context, invoiceID string, amountPaid decimal.Decimal, status domain.InvoiceStatus) error {
	return t.tx.Invoices.UpdatePayment(ctx, invoiceID, amountPaid, status)
}

func (t *ledgerTx) CreateReceipt(ctx context.Context, r *domain.Receipt) error {
	return t.tx.Receipts.Create(ctx, r)
}

func (t *ledgerTx) ReceiptNumberExists(ctx context.Context, number string) (bool, error) {
	return t.tx.Receipts.NumberExists(ctx, number)
}

func (t *ledgerTx) UpdateClosingBalance(ctx context.Context, customerID string, balance decimal.Decimal) error {
	return t.tx.Customers.UpdateClosingBalance(ctx, customerID, balance)
}

// The poller-facing slice of the store (mpesa.Store).

func (l *Ledger) UnprocessedTransactions(ctx context.Context, limit int) ([]domain.MpesaTransaction, error) {
	return l.store.Mpesa.Unprocessed(ctx, limit)
}

func (l *Ledger) MarkTransactionProcessed(ctx context.Context, id string) error {
	return l.store.Mpesa.MarkProcessed(ctx, id)
}

func (l *Ledger) PaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return l.store.Payments.GetByTransactionID(ctx, transactionID)
}

func (l *Ledger) CustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return l.store.Customers.GetByPhone(ctx, phone)
}

func (l *Ledger) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return l.store.Payments.Create(ctx, p)
}
