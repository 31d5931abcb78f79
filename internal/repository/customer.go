package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"taka-billing/internal/domain"
)

type CustomersFilter struct {
	Status   *domain.CustomerStatus
	Location *string
	Search   *string
}

type CustomerRepository struct {
	q Querier
}

func NewCustomerRepository(q Querier) *CustomerRepository {
	return &CustomerRepository{q: q}
}

const customerColumns = `id, first_name, last_name, phone_number, location, house_number, monthly_charge, closing_balance, status, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	var location, houseNumber sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.PhoneNumber,
		&location,
		&houseNumber,
		&c.MonthlyCharge,
		&c.ClosingBalance,
		&c.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if location.Valid {
		c.Location = &location.String
	}
	if houseNumber.Valid {
		c.HouseNumber = &houseNumber.String
	}
	if createdAt.Valid {
		c.CreatedAt = &createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (id, first_name, last_name, phone_number, location, house_number, monthly_charge, closing_balance, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.Location, c.HouseNumber,
		c.MonthlyCharge, c.ClosingBalance, c.Status,
	)
	return err
}

// GetByID returns (nil, nil) when no customer has the id.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetForUpdate loads the customer with a row lock, serializing concurrent
// settlements for the same customer within the enclosing transaction.
func (r *CustomerRepository) GetForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`
	c, err := scanCustomer(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetByPhone matches a canonical international phone number; (nil, nil) when
// absent.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1`
	c, err := scanCustomer(r.q.QueryRowContext(ctx, query, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *CustomerRepository) List(ctx context.Context, f CustomersFilter) ([]domain.Customer, error) {
	base := `SELECT ` + customerColumns + ` FROM customers`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.Location != nil && *f.Location != "" {
		where = append(where, fmt.Sprintf("location = $%d", i))
		args = append(args, *f.Location)
		i++
	}
	if f.Search != nil && *f.Search != "" {
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR phone_number ILIKE $%d)", i, i, i))
		args = append(args, "%"+*f.Search+"%")
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers
		SET first_name = $2, last_name = $3, phone_number = $4, location = $5,
			house_number = $6, monthly_charge = $7, status = $8, updated_at = now()
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.Location,
		c.HouseNumber, c.MonthlyCharge, c.Status,
	)
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

func (r *CustomerRepository) UpdateClosingBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	query := `UPDATE customers SET closing_balance = $2, updated_at = now() WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, balance)
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

// Delete removes the customer; invoices and receipts cascade at the schema
// level.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
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
