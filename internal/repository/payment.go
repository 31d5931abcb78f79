package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taka-billing/internal/domain"
)

type PaymentsFilter struct {
	CustomerID *string
	Receipted  *bool
	Mode       *domain.PaymentMode
	From       *time.Time
	To         *time.Time
}

type PaymentRepository struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepository {
	return &PaymentRepository{q: q}
}

const paymentColumns = `id, customer_id, amount, mode_of_payment, paid_by, receipted, transaction_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var p domain.Payment
	var customerID, transactionID sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(
		&p.ID,
		&customerID,
		&p.Amount,
		&p.ModeOfPayment,
		&p.PaidBy,
		&p.Receipted,
		&transactionID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if customerID.Valid {
		p.CustomerID = &customerID.String
	}
	if transactionID.Valid {
		p.TransactionID = &transactionID.String
	}
	if createdAt.Valid {
		p.CreatedAt = &createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, customer_id, amount, mode_of_payment, paid_by, receipted, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.CustomerID, p.Amount, p.ModeOfPayment, p.PaidBy, p.Receipted, p.TransactionID,
	)
	return err
}

// GetByID returns (nil, nil) when no payment has the id.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// GetByTransactionID looks a payment up by its external mobile-money
// transaction id; (nil, nil) when absent.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// MarkReceipted flips the receipted flag. The WHERE clause refuses a second
// flip so a concurrent settlement loses cleanly.
func (r *PaymentRepository) MarkReceipted(ctx context.Context, id string) error {
	query := `UPDATE payments SET receipted = true, updated_at = now() WHERE id = $1 AND NOT receipted`
	res, err := r.q.ExecContext(ctx, query, id)
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

// Attach links an orphan payment to a customer. Receipted payments are
// immutable, so the guard skips them and the caller sees sql.ErrNoRows.
func (r *PaymentRepository) Attach(ctx context.Context, id, customerID string) error {
	query := `UPDATE payments SET customer_id = $2, updated_at = now() WHERE id = $1 AND NOT receipted`
	res, err := r.q.ExecContext(ctx, query, id, customerID)
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

func (r *PaymentRepository) List(ctx context.Context, f PaymentsFilter) ([]domain.Payment, error) {
	base := `SELECT ` + paymentColumns + ` FROM payments`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.CustomerID != nil && *f.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer_id = $%d", i))
		args = append(args, *f.CustomerID)
		i++
	}
	if f.Receipted != nil {
		where = append(where, fmt.Sprintf("receipted = $%d", i))
		args = append(args, *f.Receipted)
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

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
