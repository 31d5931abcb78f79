package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

type InvoiceRepository struct {
	q Querier
}

func NewInvoiceRepository(q Querier) *InvoiceRepository {
	return &InvoiceRepository{q: q}
}

const invoiceColumns = `id, customer_id, invoice_amount, amount_paid, status, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (*domain.Invoice, error) {
	var inv domain.Invoice
	var updatedAt sql.NullTime
	if err := row.Scan(
		&inv.ID,
		&inv.CustomerID,
		&inv.InvoiceAmount,
		&inv.AmountPaid,
		&inv.Status,
		&inv.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		inv.UpdatedAt = &updatedAt.Time
	}
	return &inv, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (id, customer_id, invoice_amount, amount_paid, status)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query,
		inv.ID, inv.CustomerID, inv.InvoiceAmount, inv.AmountPaid, inv.Status,
	)
	return err
}

// GetByID returns (nil, nil) when no invoice has the id.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// Outstanding returns UNPAID and PPAID invoices for the customer ordered
// oldest first, which is the allocation order.
func (r *InvoiceRepository) Outstanding(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE customer_id = $1 AND status IN ($2, $3)
		ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, customerID, domain.InvoiceUnpaid, domain.InvoicePartial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE customer_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePayment records allocation progress on one invoice.
func (r *InvoiceRepository) UpdatePayment(ctx context.Context, id string, amountPaid decimal.Decimal, status domain.InvoiceStatus) error {
	query := `UPDATE invoices SET amount_paid = $2, status = $3, updated_at = now() WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, amountPaid, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *InvoiceRepository) Cancel(ctx context.Context, id string) error {
	query := `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, domain.InvoiceCancelled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
