package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"taka-billing/internal/billing"
	"taka-billing/internal/clients"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

// SettlementService fronts the settlement engine for the HTTP layer and
// pushes committed settlements to the dashboard.
type SettlementService struct {
	store  *repository.Store
	engine *billing.Engine
	ws     *clients.WebSocketClient
}

func NewSettlementService(store *repository.Store, engine *billing.Engine, ws *clients.WebSocketClient) *SettlementService {
	return &SettlementService{store: store, engine: engine, ws: ws}
}

func (s *SettlementService) Settle(ctx context.Context, req billing.SettleRequest) (*billing.SettlementResult, error) {
	result, err := s.engine.Settle(ctx, req)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, result)
	return result, nil
}

// SettleRecorded settles a payment that already exists in the ledger,
// resolving the customer from the payment record.
func (s *SettlementService) SettleRecorded(ctx context.Context, paymentID string) (*billing.SettlementResult, error) {
	payment, err := s.store.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, billing.ErrPaymentNotFound
	}
	if payment.CustomerID == nil {
		return nil, errors.New("payment has no customer; attach it before settling")
	}

	result, err := s.engine.Settle(ctx, billing.SettleRequest{
		CustomerID: *payment.CustomerID,
		PaymentID:  payment.ID,
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, result)
	return result, nil
}

// AttachPayment links an unattached payment (typically an unmatched
// mobile-money one) to a customer for later settlement.
func (s *SettlementService) AttachPayment(ctx context.Context, paymentID, customerID string) error {
	payment, err := s.store.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return billing.ErrPaymentNotFound
	}
	if payment.Receipted {
		return billing.ErrAlreadySettled
	}
	customer, err := s.store.Customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return billing.ErrCustomerNotFound
	}

	if err := s.store.Payments.Attach(ctx, paymentID, customerID); err != nil {
		return fmt.Errorf("attach payment: %w", err)
	}
	return nil
}

func (s *SettlementService) ListPayments(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error) {
	return s.store.Payments.List(ctx, f)
}

// RecordCallback stores an inbound M-Pesa callback for the ingestion loop.
func (s *SettlementService) RecordCallback(ctx context.Context, t *domain.MpesaTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return s.store.Mpesa.Create(ctx, t)
}

func (s *SettlementService) announce(ctx context.Context, result *billing.SettlementResult) {
	if s.ws == nil || result == nil {
		return
	}
	if err := s.ws.NotifyPaymentSettled(ctx, result.CustomerID, result.PaymentID,
		result.Amount.StringFixed(2), result.NewClosingBalance.StringFixed(2)); err != nil {
		log.Printf("[SETTLE] websocket notify failed: %v", err)
	}
}
