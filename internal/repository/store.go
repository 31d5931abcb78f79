package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every repository works both standalone and inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repositories over one database handle and provides the
// transaction boundary used by the settlement engine.
type Store struct {
	db *sql.DB

	Customers *CustomerRepository
	Invoices  *InvoiceRepository
	Payments  *PaymentRepository
	Receipts  *ReceiptRepository
	Mpesa     *MpesaRepository
	Tokens    *APITokenRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		Customers: NewCustomerRepository(db),
		Invoices:  NewInvoiceRepository(db),
		Payments:  NewPaymentRepository(db),
		Receipts:  NewReceiptRepository(db),
		Mpesa:     NewMpesaRepository(db),
		Tokens:    NewAPITokenRepository(db),
	}
}

// Tx exposes the repositories bound to one open transaction.
type Tx struct {
	Customers *CustomerRepository
	Invoices  *InvoiceRepository
	Payments  *PaymentRepository
	Receipts  *ReceiptRepository
	Mpesa     *MpesaRepository
}

// WithTx runs fn inside a single database transaction. A non-nil error from
// fn (or a panic) rolls everything back; otherwise the transaction commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = dbTx.Rollback()
			panic(p)
		}
	}()

	tx := &Tx{
		Customers: NewCustomerRepository(dbTx),
		Invoices:  NewInvoiceRepository(dbTx),
		Payments:  NewPaymentRepository(dbTx),
		Receipts:  NewReceiptRepository(dbTx),
		Mpesa:     NewMpesaRepository(dbTx),
	}

	if err := fn(tx); err != nil {
		_ = dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
