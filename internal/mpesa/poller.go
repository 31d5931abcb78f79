package mpesa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
)

// Store is the slice of the ledger the poller needs. Getters return
// (nil, nil) when the record does not exist.
type Store interface {
	UnprocessedTransactions(ctx context.Context, limit int) ([]domain.MpesaTransaction, error)
	MarkTransactionProcessed(ctx context.Context, id string) error
	PaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	CustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
}

// Settler is the settlement engine contract the poller feeds.
type Settler interface {
	Settle(ctx context.Context, req billing.SettleRequest) (*billing.SettlementResult, error)
}

// Poller sweeps unprocessed M-Pesa callbacks and feeds them to the
// settlement engine. A raw transaction is marked processed only once its
// payment is settled (or recorded unattached), so a failed sweep retries it;
// the engine's receipted flag makes those retries safe.
type Poller struct {
	store       Store
	engine      Settler
	interval    time.Duration
	batchSize   int
	countryCode string
}

func NewPoller(store Store, engine Settler, interval time.Duration, batchSize int, countryCode string) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Poller{
		store:       store,
		engine:      engine,
		interval:    interval,
		batchSize:   batchSize,
		countryCode: countryCode,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Sweep(ctx); err != nil {
				log.Printf("[MPESA] sweep error: %v", err)
			}
		}
	}
}

// Sweep processes one batch of unprocessed transactions. A failure on one
// transaction does not stop the rest of the batch.
func (p *Poller) Sweep(ctx context.Context) error {
	transactions, err := p.store.UnprocessedTransactions(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list unprocessed transactions: %w", err)
	}

	for _, t := range transactions {
		if err := p.process(ctx, t); err != nil {
			// Left unprocessed; the next sweep retries it.
			log.Printf("[MPESA] transaction %s: %v", t.TransactionID, err)
		}
	}
	return nil
}

func (p *Poller) process(ctx context.Context, t domain.MpesaTransaction) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(t.Amount))
	if err != nil || !amount.IsPositive() {
		// Held for manual review: skipped, left unprocessed, no retry churn
		// because the amount will never become valid on its own.
		log.Printf("[MPESA] transaction %s has invalid amount %q, skipping", t.TransactionID, t.Amount)
		return nil
	}

	existing, err := p.store.PaymentByTransactionID(ctx, t.TransactionID)
	if err != nil {
		return fmt.Errorf("lookup payment: %w", err)
	}
	if existing != nil {
		// The callback was already ingested. A prior sweep may have created
		// the payment and then failed to settle it, so an attached,
		// unreceipted payment is settled again before the raw row is
		// retired; receipted and unattached payments just retire the row.
		if existing.CustomerID != nil && !existing.Receipted {
			if _, err := p.engine.Settle(ctx, billing.SettleRequest{
				CustomerID: *existing.CustomerID,
				PaymentID:  existing.ID,
			}); err != nil && !errors.Is(err, billing.ErrAlreadySettled) {
				return fmt.Errorf("settle payment %s: %w", existing.ID, err)
			}
		}
		return p.store.MarkTransactionProcessed(ctx, t.ID)
	}

	transactionID := t.TransactionID
	phone := billing.NormalizePhone(t.BillRefNumber, p.countryCode)

	customer, err := p.store.CustomerByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("resolve customer: %w", err)
	}

	if customer == nil {
		// No account matches the bill reference. Record the money as an
		// unattached payment for manual reconciliation and move on.
		payment := &domain.Payment{
			ID:            uuid.NewString(),
			Amount:        amount,
			ModeOfPayment: domain.PaymentMpesa,
			PaidBy:        t.FirstName,
			Receipted:     false,
			TransactionID: &transactionID,
		}
		if err := p.store.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create unattached payment: %w", err)
		}
		log.Printf("[MPESA] transaction %s: no customer for ref %q, recorded unattached payment %s", t.TransactionID, t.BillRefNumber, payment.ID)
		return p.store.MarkTransactionProcessed(ctx, t.ID)
	}

	customerID := customer.ID
	payment := &domain.Payment{
		ID:            uuid.NewString(),
		CustomerID:    &customerID,
		Amount:        amount,
		ModeOfPayment: domain.PaymentMpesa,
		PaidBy:        t.FirstName,
		Receipted:     false,
		TransactionID: &transactionID,
	}
	if err := p.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	if _, err := p.engine.Settle(ctx, billing.SettleRequest{
		CustomerID: customer.ID,
		PaymentID:  payment.ID,
	}); err != nil && !errors.Is(err, billing.ErrAlreadySettled) {
		return fmt.Errorf("settle payment %s: %w", payment.ID, err)
	}

	return p.store.MarkTransactionProcessed(ctx, t.ID)
}
