package repository

import (
	"context"
	"database/sql"

	"taka-billing/internal/domain"
)

type MpesaRepository struct {
	q Querier
}

func NewMpesaRepository(q Querier) *MpesaRepository {
	return &MpesaRepository{q: q}
}

const mpesaColumns = `id, transaction_id, transaction_time, amount, msisdn, bill_ref_number, first_name, processed, created_at`

func scanMpesaTransaction(row interface{ Scan(...any) error }) (*domain.MpesaTransaction, error) {
	var t domain.MpesaTransaction
	var createdAt sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.TransactionID,
		&t.TransactionTime,
		&t.Amount,
		&t.MSISDN,
		&t.BillRefNumber,
		&t.FirstName,
		&t.Processed,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t.CreatedAt = &createdAt.Time
	}
	return &t, nil
}

// Create stores a callback verbatim. Re-delivery of the same external
// transaction id is ignored: the first stored row wins.
func (r *MpesaRepository) Create(ctx context.Context, t *domain.MpesaTransaction) error {
	query := `INSERT INTO mpesa_transactions (id, transaction_id, transaction_time, amount, msisdn, bill_ref_number, first_name, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		ON CONFLICT (transaction_id) DO NOTHING`
	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.TransactionID, t.TransactionTime, t.Amount, t.MSISDN, t.BillRefNumber, t.FirstName,
	)
	return err
}

func (r *MpesaRepository) Unprocessed(ctx context.Context, limit int) ([]domain.MpesaTransaction, error) {
	query := `SELECT ` + mpesaColumns + ` FROM mpesa_transactions
		WHERE NOT processed
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MpesaTransaction
	for rows.Next() {
		t, err := scanMpesaTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MpesaRepository) MarkProcessed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE mpesa_transactions SET processed = true WHERE id = $1`, id)
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
