package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taka-billing/internal/domain"
)

type ReceiptsFilter struct {
	CustomerID *string
	Mode       *domain.PaymentMode
	From       *time.Time
	To         *time.Time
}

type ReceiptRepository struct {
	q Querier
}

func NewReceiptRepository(q Querier) *ReceiptRepository {
	return &ReceiptRepository{q: q}
}

const receiptColumns = `id, receipt_number, customer_id, payment_id, invoice_id, amount, mode_of_payment, paid_by, created_at`

func scanReceipt(row interface{ Scan(...any) error }) (*domain.Receipt, error) {
	var rc domain.Receipt
	var invoiceID sql.NullString
	var createdAt sql.NullTime
	if err := row.Scan(
		&rc.ID,
		&rc.ReceiptNumber,
		&rc.CustomerID,
		&rc.PaymentID,
		&invoiceID,
		&rc.Amount,
		&rc.ModeOfPayment,
		&rc.PaidBy,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if invoiceID.Valid {
		rc.InvoiceID = &invoiceID.String
	}
	if createdAt.Valid {
		rc.CreatedAt = &createdAt.Time
	}
	return &rc, nil
}

func (r *ReceiptRepository) Create(ctx context.Context, rc *domain.Receipt) error {
	query := `INSERT INTO receipts (id, receipt_number, customer_id, payment_id, invoice_id, amount, mode_of_payment, paid_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query,
		rc.ID, rc.ReceiptNumber, rc.CustomerID, rc.PaymentID, rc.InvoiceID,
		rc.Amount, rc.ModeOfPayment, rc.PaidBy,
	)
	return err
}

func (r *ReceiptRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM receipts WHERE receipt_number = $1)`, number,
	).Scan(&exists)
	return exists, err
}

func (r *ReceiptRepository) List(ctx context.Context, f ReceiptsFilter) ([]domain.Receipt, error) {
	base := `SELECT ` + receiptColumns + ` FROM receipts`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.CustomerID != nil && *f.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer_id = $%d", i))
		args = append(args, *f.CustomerID)
		i++
	}
	if f.Mode != nil {
		where = append(where, fmt.Sprintf("mode_of_payment = $%d", i))
		args = append(args, *f.Mode)
		i++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", i))
		args = append(args, *f.From)
		i++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", i))
		args = append(args, *f.To)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReceiptRepository) HasMoreThan(ctx context.Context, limit int64, f ReceiptsFilter) (bool, error) {
	base := `SELECT COUNT(*) > $1 FROM receipts`

	where := []string{"1=1"}
	args := []any{limit}
	i := 2

	if f.CustomerID != nil && *f.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer_id = $%d", i))
		args = append(args, *f.CustomerID)
		i++
	}
	if f.Mode != nil {
		where = append(where, fmt.Sprintf("mode_of_payment = $%d", i))
		args = append(args, *f.Mode)
		i++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", i))
		args = append(args, *f.From)
		i++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", i))
		args = append(args, *f.To)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ")

	var tooMany bool
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&tooMany); err != nil {
		return false, err
	}
	return tooMany, nil
}
