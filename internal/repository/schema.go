package repository

import (
	"database/sql"
	"fmt"
	"log"
)

// Migrate creates the schema. Safe to run on every start: all statements are
// IF NOT EXISTS.
func Migrate(db *sql.DB) error {
	log.Println("[DB] running schema migrations")

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
		}
	}

	log.Println("[DB] schema migrations complete")
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL UNIQUE,
		location TEXT,
		house_number TEXT,
		monthly_charge NUMERIC(12,2) NOT NULL DEFAULT 0,
		closing_balance NUMERIC(12,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'DORMANT')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		invoice_amount NUMERIC(12,2) NOT NULL,
		amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'UNPAID' CHECK (status IN ('UNPAID', 'PPAID', 'PAID', 'CANCELLED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoices_customer_status ON invoices (customer_id, status)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
		amount NUMERIC(12,2) NOT NULL,
		mode_of_payment TEXT NOT NULL DEFAULT 'CASH',
		paid_by TEXT NOT NULL DEFAULT '',
		receipted BOOLEAN NOT NULL DEFAULT false,
		transaction_id TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		receipt_number TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		payment_id TEXT NOT NULL REFERENCES payments(id),
		invoice_id TEXT REFERENCES invoices(id) ON DELETE SET NULL,
		amount NUMERIC(12,2) NOT NULL,
		mode_of_payment TEXT NOT NULL DEFAULT 'CASH',
		paid_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_receipts_customer ON receipts (customer_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS mpesa_transactions (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL UNIQUE,
		transaction_time TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		msisdn TEXT NOT NULL DEFAULT '',
		bill_ref_number TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		processed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_mpesa_unprocessed ON mpesa_transactions (created_at) WHERE NOT processed`,

	`CREATE TABLE IF NOT EXISTS api_tokens (
		id BIGSERIAL PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		user_id BIGINT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
